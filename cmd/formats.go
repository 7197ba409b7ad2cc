package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"vid2audio/internal/tui"
	"vid2audio/pkg/mediafmt"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported input and output formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, outputs := mediafmt.List()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s\n", formatsLabelStyle.Render("Input: "), formatsValueStyle.Render(strings.Join(inputs, " ")))
		fmt.Fprintf(w, "%s %s\n", formatsLabelStyle.Render("Output:"), formatsValueStyle.Render(strings.Join(outputs, " ")))
		return nil
	},
}

var (
	formatsLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	formatsValueStyle = lipgloss.NewStyle().Foreground(tui.ColorInk)
)

func init() {
	rootCmd.AddCommand(formatsCmd)
}
