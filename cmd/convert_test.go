package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"vid2audio/internal/config"
	"vid2audio/internal/converter"
	"vid2audio/internal/processor"
	"vid2audio/internal/runlock"
	"vid2audio/pkg/mediafmt"
)

func TestPrintProgressDeciles(t *testing.T) {
	updates := make(chan processor.ProgressUpdate, 16)
	for _, u := range []processor.ProgressUpdate{
		{TotalDelta: 1},
		{Path: "/v/a.mp4", Started: true},
		{Path: "/v/a.mp4", Percent: 5},
		{Path: "/v/a.mp4", Percent: 12},
		{Path: "/v/a.mp4", Percent: 18},
		{Path: "/v/a.mp4", Indeterminate: true},
		{Path: "/v/a.mp4", Percent: 100},
		{Path: "/v/a.mp4", Finished: true, Status: converter.StatusSucceeded},
	} {
		updates <- u
	}
	close(updates)

	var buf bytes.Buffer
	printProgress(&buf, updates)
	want := "converting a.mp4\na.mp4: 12%\na.mp4: 100%\na.mp4: succeeded\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderOutcomes(t *testing.T) {
	failed := converter.Failed("/v/c.mov", &converter.EngineError{Input: "/v/c.mov", Err: errors.New("exit status 1")})
	out := renderOutcomes([]converter.Outcome{
		converter.Succeeded("/v/a.mp4", "/v/a.mp3"),
		failed,
	})
	for _, want := range []string{"a.mp4", "/v/a.mp3", "c.mov", "engine_error", "failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestApplyConvertFlagsOnlyOverridesChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "convert"}
	bindConvertFlags(cmd.Flags())
	if err := cmd.ParseFlags([]string{"-f", "wav", "-j", "3", "--recursive"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg := config.Default()
	cfg.Conversion.Bitrate = "320k"
	applyConvertFlags(cmd, &cfg)

	if cfg.Conversion.OutputFormat != mediafmt.FormatWAV {
		t.Errorf("format = %q", cfg.Conversion.OutputFormat)
	}
	if cfg.Batch.Workers != 3 || !cfg.Batch.Recursive {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if cfg.Conversion.Bitrate != "320k" {
		t.Errorf("unset flag replaced bitrate: %q", cfg.Conversion.Bitrate)
	}
	if cfg.Conversion.SampleRate != 44100 {
		t.Errorf("unset flag replaced sample rate: %d", cfg.Conversion.SampleRate)
	}
}

func TestWriteDirs(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	candidates := []string{
		filepath.Join(b, "x.mp4"),
		filepath.Join(a, "y.mkv"),
		filepath.Join(b, "z.avi"),
		filepath.Join(a, "gone", "w.mp4"),
	}

	if got := writeDirs("/out", candidates); len(got) != 1 || got[0] != "/out" {
		t.Fatalf("with output dir got %v", got)
	}

	got := writeDirs("", candidates)
	want := []string{a, b}
	if b < a {
		want = []string{b, a}
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// stubConfig points the engine at a shell script that writes the output
// file it is given and keeps logs and history inside the test.
func stubConfig(t *testing.T) config.Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	bin := t.TempDir()
	ffmpeg := filepath.Join(bin, "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=$a; done\necho audio > \"$out\"\n"
	if err := os.WriteFile(ffmpeg, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	state := t.TempDir()
	cfg := config.Default()
	cfg.Engine.FFmpegPath = ffmpeg
	cfg.Engine.FFprobePath = filepath.Join(bin, "missing-duration-tool")
	cfg.Logging.File = filepath.Join(state, "conversion.log")
	cfg.History.Path = filepath.Join(state, "history.db")

	prev := convertNoTUI
	convertNoTUI = true
	t.Cleanup(func() { convertNoTUI = prev })
	return cfg
}

func TestRunConvertWritesNextToInputsAndReportsFailures(t *testing.T) {
	cfg := stubConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.mp4")

	var out bytes.Buffer
	err := runConvert(context.Background(), cfg, []string{input, missing}, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.mp3")); statErr != nil {
		t.Fatalf("expected a.mp3 next to input: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(dir, runlock.FileName)); !os.IsNotExist(statErr) {
		t.Fatalf("run lock left behind: %v", statErr)
	}
	for _, want := range []string{"converting a.mp4", "a.mp4: succeeded", "missing.mp4", "filesystem_error"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunConvertRefusesLockedInputDir(t *testing.T) {
	cfg := stubConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	held, err := runlock.Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	var out bytes.Buffer
	err = runConvert(context.Background(), cfg, []string{input}, &out)
	if !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.mp3")); !os.IsNotExist(statErr) {
		t.Fatalf("engine ran despite the lock: %v", statErr)
	}
}

func TestRunConvertNoCandidates(t *testing.T) {
	cfg := stubConfig(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runConvert(context.Background(), cfg, []string{dir}, &out); err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	if !strings.Contains(out.String(), "No video files found.") {
		t.Fatalf("got %q", out.String())
	}
}
