package processor

import (
	"os"
	"path/filepath"
	"testing"
)

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "movie.mkv")
	touch(t, dir, "show.mp4")
	touch(t, dir, "music.mp3")
	touch(t, dir, "readme.txt")
	touch(t, dir, "anime.avi")
	touch(t, dir, "CLIP.MOV")

	files, err := Discover(dir, false, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"CLIP.MOV", "anime.avi", "movie.mkv", "show.mp4"}
	if got := basenames(files); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscoverNonRecursiveIgnoresSubdirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "top.mp4")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, sub, "nested.mp4")

	files, err := Discover(dir, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := basenames(files); !sliceEqual(got, []string{"top.mp4"}) {
		t.Fatalf("got %v", got)
	}

	files, err = Discover(dir, true, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := basenames(files); !sliceEqual(got, []string{"nested.mp4", "top.mp4"}) {
		t.Fatalf("recursive got %v", got)
	}
}

func TestDiscoverPrunesOutputDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "main.mkv")
	out := filepath.Join(dir, "converted_audio")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, out, "leftover.mp4")

	files, err := Discover(dir, true, out)
	if err != nil {
		t.Fatal(err)
	}
	if got := basenames(files); !sliceEqual(got, []string{"main.mkv"}) {
		t.Fatalf("got %v", got)
	}
}

func TestDiscoverSingleFileKeptAsIs(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "notes.txt")
	files, err := Discover(path, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != path {
		t.Fatalf("got %v", files)
	}
}

func TestDiscoverMissingPathKeptAsCandidate(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.mp4")
	files, err := Discover(missing, false, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0] != missing {
		t.Fatalf("got %v", files)
	}
}

func TestDiscoverAllKeepsMissingArgument(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.mp4")
	missing := filepath.Join(dir, "missing.mp4")
	c := touch(t, dir, "c.mp4")

	files, err := DiscoverAll([]string{a, missing, c}, false, "")
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if !sliceEqual(files, []string{a, missing, c}) {
		t.Fatalf("got %v", files)
	}
}

func TestDiscoverAllKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, dir, "b.mp4")
	a := touch(t, dir, "a.mp4")
	sub := filepath.Join(dir, "more")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	c := touch(t, sub, "c.webm")

	files, err := DiscoverAll([]string{b, sub, a, b}, false, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{b, c, a}
	if !sliceEqual(files, want) {
		t.Fatalf("got %v, want %v", files, want)
	}
}
