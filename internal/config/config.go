// Package config holds run configuration: defaults, an optional TOML file,
// environment overrides and validation. The conversion settings handed to the
// converter are a value type built once per run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"vid2audio/pkg/mediafmt"
)

// ErrUnsupportedOutput is returned by Validate when the output format is not
// in the registry.
var ErrUnsupportedOutput = errors.New("unsupported output format")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VID2AUDIO_"

// Conversion is the per-run conversion configuration.
type Conversion struct {
	Bitrate        string          `toml:"bitrate"`
	SampleRate     int             `toml:"sample_rate"`
	OutputDir      string          `toml:"output_dir"`
	Overwrite      bool            `toml:"overwrite"`
	DeleteOriginal bool            `toml:"delete_original"`
	OutputFormat   mediafmt.Format `toml:"output_format"`
	SanitizeNames  bool            `toml:"sanitize_names"`
}

// Engine configures the external binaries.
type Engine struct {
	FFmpegPath           string `toml:"ffmpeg_path"`
	FFprobePath          string `toml:"ffprobe_path"`
	ProbeTimeoutSeconds  int    `toml:"probe_timeout_seconds"`
	EngineTimeoutSeconds int    `toml:"engine_timeout_seconds"`
	ProgressIntervalMS   int    `toml:"progress_interval_ms"`
}

// Batch configures candidate discovery and scheduling.
type Batch struct {
	Workers   int  `toml:"workers"`
	Recursive bool `toml:"recursive"`
}

// Logging configures the log sink.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// History configures the conversion journal.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config is the full run configuration.
type Config struct {
	Conversion Conversion `toml:"conversion"`
	Engine     Engine     `toml:"engine"`
	Batch      Batch      `toml:"batch"`
	Logging    Logging    `toml:"logging"`
	History    History    `toml:"history"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Conversion: Conversion{
			Bitrate:      "192k",
			SampleRate:   44100,
			OutputFormat: mediafmt.FormatMP3,
		},
		Engine: Engine{
			FFmpegPath:          "ffmpeg",
			FFprobePath:         "ffprobe",
			ProbeTimeoutSeconds: 30,
			ProgressIntervalMS:  500,
		},
		Batch: Batch{
			Workers: 1,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
			File:   "conversion.log",
		},
		History: History{
			Enabled: true,
			Path:    "vid2audio-history.db",
		},
	}
}

// Load returns defaults overlaid with the TOML file at path. A missing file is
// an error only when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if it exists) into the process environment and then
// applies VID2AUDIO_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("BITRATE", &c.Conversion.Bitrate)
	integer("SAMPLE_RATE", &c.Conversion.SampleRate)
	str("OUTPUT_DIR", &c.Conversion.OutputDir)
	boolean("OVERWRITE", &c.Conversion.Overwrite)
	boolean("DELETE_ORIGINAL", &c.Conversion.DeleteOriginal)
	if v, ok := os.LookupEnv(EnvPrefix + "OUTPUT_FORMAT"); ok {
		c.Conversion.OutputFormat = mediafmt.Format(strings.ToLower(strings.TrimSpace(v)))
	}
	str("FFMPEG", &c.Engine.FFmpegPath)
	str("FFPROBE", &c.Engine.FFprobePath)
	integer("WORKERS", &c.Batch.Workers)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FILE", &c.Logging.File)
	str("HISTORY_PATH", &c.History.Path)

	return errors.Join(errs...)
}

// Validate normalizes and checks every section. It is the only place
// configuration errors are raised; callers must run it before any file is
// processed.
func (c *Config) Validate() error {
	if err := c.Conversion.Validate(); err != nil {
		return err
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Batch.Workers)
	}
	if c.Engine.ProbeTimeoutSeconds < 0 || c.Engine.EngineTimeoutSeconds < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Engine.ProgressIntervalMS <= 0 {
		return fmt.Errorf("progress interval must be positive, got %dms", c.Engine.ProgressIntervalMS)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (use 'console' or 'json')", c.Logging.Format)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history path must be set when history is enabled")
	}
	return nil
}

// Validate checks the conversion settings and canonicalizes the bitrate and
// output format in place.
func (c *Conversion) Validate() error {
	f, err := mediafmt.ParseFormat(string(c.OutputFormat))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedOutput, c.OutputFormat)
	}
	c.OutputFormat = f

	bitrate, err := normalizeBitrate(c.Bitrate)
	if err != nil {
		return err
	}
	c.Bitrate = bitrate

	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	return nil
}

// ProbeTimeout returns the probe timeout as a duration.
func (e Engine) ProbeTimeout() time.Duration {
	return time.Duration(e.ProbeTimeoutSeconds) * time.Second
}

// EngineTimeout returns the per-file engine timeout; zero means none.
func (e Engine) EngineTimeout() time.Duration {
	return time.Duration(e.EngineTimeoutSeconds) * time.Second
}

// ProgressInterval returns the estimator tick interval.
func (e Engine) ProgressInterval() time.Duration {
	return time.Duration(e.ProgressIntervalMS) * time.Millisecond
}

// normalizeBitrate accepts "192", "192k", "192K" or "192kbps" and returns "192k".
func normalizeBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid bitrate %q (use a positive kbps value, e.g. 192k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}
