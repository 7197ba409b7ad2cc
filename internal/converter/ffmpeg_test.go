package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"vid2audio/pkg/mediafmt"
)

func TestFFmpegArgs(t *testing.T) {
	f := NewFFmpeg("", 0)
	if f.Path != "ffmpeg" {
		t.Fatalf("unexpected default path %q", f.Path)
	}

	args := f.Args(Job{
		Input:      "/in/clip.mp4",
		Output:     "/out/clip.mp3",
		Format:     mediafmt.FormatMP3,
		Bitrate:    "192k",
		SampleRate: 44100,
	})
	expected := []string{
		"-i", "/in/clip.mp4",
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-ar", "44100",
		"-n",
		"-loglevel", "error",
		"/out/clip.mp3",
	}
	if len(args) != len(expected) {
		t.Fatalf("expected %d args, got %d: %v", len(expected), len(args), args)
	}
	for i := range expected {
		if args[i] != expected[i] {
			t.Errorf("arg %d: expected %s, got %s", i, expected[i], args[i])
		}
	}

	wav := f.Args(Job{Format: mediafmt.FormatWAV, Bitrate: "320k", SampleRate: 48000, Overwrite: true})
	joined := strings.Join(wav, " ")
	if !strings.Contains(joined, "-acodec pcm_s16le") || !strings.Contains(joined, " -y ") {
		t.Fatalf("unexpected wav args: %v", wav)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestFFmpegConvertSuccess(t *testing.T) {
	// The last argument is the output path.
	script := writeScript(t, "for a; do out=$a; done\necho audio > \"$out\"\n")
	out := filepath.Join(t.TempDir(), "clip.mp3")

	err := NewFFmpeg(script, 0).Convert(context.Background(), Job{
		Input: "clip.mp4", Output: out, Format: mediafmt.FormatMP3, Bitrate: "192k", SampleRate: 44100,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output: %v", err)
	}
}

func TestFFmpegConvertFailureCapturesStderr(t *testing.T) {
	script := writeScript(t, "echo 'clip.mp4: Invalid data found when processing input' >&2\nexit 1\n")

	err := NewFFmpeg(script, 0).Convert(context.Background(), Job{Input: "clip.mp4", Output: "clip.mp3", Format: mediafmt.FormatMP3})
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if !strings.Contains(engineErr.Stderr, "Invalid data found") {
		t.Fatalf("stderr not captured: %q", engineErr.Stderr)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("error message lacks diagnostics: %v", err)
	}
}

func TestFFmpegConvertMissingBinary(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg"), 0)
	err := f.Convert(context.Background(), Job{Input: "clip.mp4", Output: "clip.mp3", Format: mediafmt.FormatMP3})
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if _, err := f.CheckInstalled(context.Background()); err == nil {
		t.Fatal("expected CheckInstalled to fail")
	}
}

func TestFFmpegConvertTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")

	start := time.Now()
	err := NewFFmpeg(script, 50*time.Millisecond).Convert(context.Background(), Job{Input: "clip.mp4", Output: "clip.mp3", Format: mediafmt.FormatMP3})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestFFmpegCheckInstalled(t *testing.T) {
	script := writeScript(t, "echo 'ffmpeg version 7.1 Copyright (c) 2000-2024'\necho 'built with gcc'\n")
	line, err := NewFFmpeg(script, 0).CheckInstalled(context.Background())
	if err != nil {
		t.Fatalf("CheckInstalled: %v", err)
	}
	if line != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version line %q", line)
	}
}
