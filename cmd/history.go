package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vid2audio/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversion outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
			fmt.Fprintln(w, "No history recorded yet.")
			return nil
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history recorded yet.")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			run := e.RunID
			if len(run) > 8 {
				run = run[:8]
			}
			detail := e.Output
			if e.Status == "failed" {
				detail = e.Reason
			}
			rows = append(rows, []string{
				humanize.Time(e.CreatedAt),
				run,
				filepath.Base(e.Input),
				e.Status,
				detail,
			})
		}
		fmt.Fprintln(w, renderTable([]column{
			{Title: "When"},
			{Title: "Run"},
			{Title: "File", Max: 40},
			{Title: "Status"},
			{Title: "Detail", Max: 60},
		}, rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of rows to show")
	rootCmd.AddCommand(historyCmd)
}
