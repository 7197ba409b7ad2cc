package converter

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"vid2audio/pkg/mediafmt"
)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-. ]`)

// ResolveOutputPath swaps the input's extension for the format's and, when
// outputDir is set, relocates the file there, creating the directory (and any
// parents) if needed.
func ResolveOutputPath(inputPath string, format mediafmt.Format, outputDir string, sanitize bool) (string, error) {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sanitize {
		stem = SanitizeFilename(stem)
	}
	name := stem + format.Ext()

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), name), nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &FilesystemError{Op: "create output directory", Path: outputDir, Err: err}
	}
	return filepath.Join(outputDir, name), nil
}

// SanitizeFilename replaces characters that are not letters, digits,
// underscore, dash, dot or space with an underscore. Names are composed to
// NFC first so decomposed accents survive as letters.
func SanitizeFilename(name string) string {
	return unsafeNameChars.ReplaceAllString(norm.NFC.String(name), "_")
}
