package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vid2audio/internal/config"
)

var (
	configPath string
	logFile    string
	logLevel   string
	logFormat  string
)

// envFile is read from the working directory when present.
const envFile = ".env"

var rootCmd = &cobra.Command{
	Use:           "vid2audio",
	Short:         "vid2audio - extract audio tracks from video files",
	Long:          "vid2audio converts video files (mp4, mkv, avi, mov, wmv, flv, webm) into mp3 or wav audio using ffmpeg.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a TOML config file")
	flags.StringVar(&logFile, "log-file", "", "append logs to this file (default conversion.log)")
	flags.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// loadConfig layers defaults, the config file, the environment and the
// persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
