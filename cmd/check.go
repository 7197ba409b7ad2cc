package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vid2audio/internal/converter"
	"vid2audio/internal/deps"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that ffmpeg and ffprobe are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		statuses := deps.CheckBinaries(deps.Requirements(cfg.Engine))
		if dir := cfg.Conversion.OutputDir; dir != "" {
			statuses = append(statuses, deps.CheckDirectoryAccess("Output directory", dir))
		}
		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			state := "ok"
			detail := s.Detail
			switch {
			case !s.Available && s.Optional:
				state = "missing (optional)"
			case !s.Available:
				state = "missing"
			case s.Name == "FFmpeg":
				detail = ffmpegVersion(cmd.Context(), s.Command)
			}
			rows = append(rows, []string{s.Name, s.Command, state, detail})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
			{Title: "Tool"},
			{Title: "Command"},
			{Title: "Status"},
			{Title: "Detail", Max: 60},
		}, rows))

		return deps.Missing(statuses)
	},
}

func ffmpegVersion(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	version, err := converter.NewFFmpeg(path, 0).CheckInstalled(ctx)
	if err != nil {
		return err.Error()
	}
	return version
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
