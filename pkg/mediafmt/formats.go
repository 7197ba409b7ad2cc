package mediafmt

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a supported audio output container.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

var inputExtensions = map[string]struct{}{
	"mp4":  {},
	"mkv":  {},
	"avi":  {},
	"mov":  {},
	"wmv":  {},
	"flv":  {},
	"webm": {},
}

var outputCodecs = map[Format]string{
	FormatMP3: "libmp3lame",
	FormatWAV: "pcm_s16le",
}

func (f Format) String() string {
	return string(f)
}

// Ext returns the file extension for f, including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Codec returns the ffmpeg audio encoder used for f.
func (f Format) Codec() string {
	return outputCodecs[f]
}

// ParseFormat maps user input such as "MP3" or ".wav" onto a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(normalize(s))
	if _, ok := outputCodecs[f]; !ok {
		return "", fmt.Errorf("unsupported output format %q", s)
	}
	return f, nil
}

// Ext returns the extension of path's final element, including the dot. A
// leading dot does not start an extension, so ".mp4" and "clip." have none.
func Ext(path string) string {
	name := filepath.Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// IsSupportedInput reports whether ext names a recognized video container.
func IsSupportedInput(ext string) bool {
	_, ok := inputExtensions[normalize(ext)]
	return ok
}

// IsSupportedOutput reports whether ext names a recognized audio format.
func IsSupportedOutput(ext string) bool {
	_, ok := outputCodecs[Format(normalize(ext))]
	return ok
}

// List returns the input and output sets as sorted dotted extensions.
func List() (inputs []string, outputs []string) {
	for ext := range inputExtensions {
		inputs = append(inputs, "."+ext)
	}
	for f := range outputCodecs {
		outputs = append(outputs, f.Ext())
	}
	sort.Strings(inputs)
	sort.Strings(outputs)
	return inputs, outputs
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
