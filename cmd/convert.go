package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vid2audio/internal/config"
	"vid2audio/internal/converter"
	"vid2audio/internal/deps"
	"vid2audio/internal/history"
	"vid2audio/internal/logging"
	"vid2audio/internal/probe"
	"vid2audio/internal/processor"
	"vid2audio/internal/runlock"
	"vid2audio/internal/tui"
	"vid2audio/pkg/mediafmt"
)

var (
	convertFormat         string
	convertBitrate        string
	convertSampleRate     int
	convertOutputDir      string
	convertOverwrite      bool
	convertDeleteOriginal bool
	convertSanitize       bool
	convertRecursive      bool
	convertWorkers        int
	convertNoTUI          bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <path>...",
	Short: "Extract audio from video files or folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyConvertFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runConvert(cmd.Context(), cfg, args, cmd.OutOrStdout())
	},
}

func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Conversion.OutputFormat = mediafmt.Format(convertFormat)
	}
	if flags.Changed("bitrate") {
		cfg.Conversion.Bitrate = convertBitrate
	}
	if flags.Changed("samplerate") {
		cfg.Conversion.SampleRate = convertSampleRate
	}
	if flags.Changed("output") {
		cfg.Conversion.OutputDir = convertOutputDir
	}
	if flags.Changed("overwrite") {
		cfg.Conversion.Overwrite = convertOverwrite
	}
	if flags.Changed("delete-original") {
		cfg.Conversion.DeleteOriginal = convertDeleteOriginal
	}
	if flags.Changed("sanitize") {
		cfg.Conversion.SanitizeNames = convertSanitize
	}
	if flags.Changed("recursive") {
		cfg.Batch.Recursive = convertRecursive
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = convertWorkers
	}
}

func runConvert(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	useTUI := !convertNoTUI && isatty.IsTerminal(os.Stdout.Fd())

	var console io.Writer
	if !useTUI {
		console = os.Stderr
	}
	sink, err := logging.New(logging.Options{
		Name:    "vid2audio",
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		File:    cfg.Logging.File,
		Console: console,
		Color:   isatty.IsTerminal(os.Stderr.Fd()),
	})
	if err != nil {
		return err
	}
	defer sink.Close()
	logger := sink.Logger

	if err := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg.Engine))); err != nil {
		logger.Error("required tools are missing; install ffmpeg and make sure it is on PATH", "error", err)
		return fmt.Errorf("dependency check failed: %w", err)
	}

	candidates, err := processor.DiscoverAll(args, cfg.Batch.Recursive, cfg.Conversion.OutputDir)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		logger.Warn("no convertible video files found", "paths", args)
		fmt.Fprintln(stdout, "No video files found.")
		return nil
	}

	locks, err := acquireLocks(cfg.Conversion.OutputDir, candidates, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, lock := range locks {
			if err := lock.Release(); err != nil {
				logger.Warn("could not release run lock", "path", lock.Path(), "error", err)
			}
		}
	}()

	runID := uuid.NewString()
	var recorder processor.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history journal unavailable", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
			runID = store.RunID()
			recorder = store
		}
	}
	logger = logger.With("run", runID)
	logger.Info("starting batch",
		"files", len(candidates),
		"format", cfg.Conversion.OutputFormat,
		"bitrate", cfg.Conversion.Bitrate,
		"sample_rate", cfg.Conversion.SampleRate,
		"workers", cfg.Batch.Workers,
	)

	conv := converter.New(
		converter.NewFFmpeg(cfg.Engine.FFmpegPath, cfg.Engine.EngineTimeout()),
		probe.NewFFprobe(cfg.Engine.FFprobePath, cfg.Engine.ProbeTimeout(), logger),
		logger,
	)
	conv.Interval = cfg.Engine.ProgressInterval()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	updates := make(chan processor.ProgressUpdate, 64)
	conv.OnProgress = processor.ProgressSink(updates)

	uiDone := make(chan struct{})
	if useTUI {
		program := tea.NewProgram(tui.NewModel(updates))
		go func() {
			defer close(uiDone)
			if _, err := program.Run(); err != nil {
				logger.Warn("progress view stopped", "error", err)
			}
			// The view owns the terminal, so ctrl+c ends up here rather than
			// as SIGINT.
			stop()
			// Keep draining so the batch never blocks on a dead view.
			for range updates {
			}
		}()
	} else {
		go func() {
			defer close(uiDone)
			printProgress(stdout, updates)
		}()
	}

	started := time.Now()
	summary, err := processor.Run(runCtx, candidates, conv, processor.Options{
		Conversion: cfg.Conversion,
		Workers:    cfg.Batch.Workers,
		Recorder:   recorder,
		Logger:     logger,
	}, updates)
	interrupted := runCtx.Err()
	close(updates)
	<-uiDone
	if err != nil {
		return err
	}

	logger.Info("batch finished",
		"converted", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	fmt.Fprintln(stdout, tui.RenderSummary(tui.SummaryRows(summary, time.Since(started))))
	fmt.Fprintln(stdout, renderOutcomes(summary.Outcomes))
	if cfg.Conversion.OutputDir != "" {
		outPath := cfg.Conversion.OutputDir
		if abs, absErr := filepath.Abs(outPath); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(stdout, "Audio files written to: %s\n", outPath)
	}

	if interrupted != nil {
		return fmt.Errorf("batch interrupted: %w", interrupted)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed (see %s)", summary.Failed, summary.Total, cfg.Logging.File)
	}
	return nil
}

// writeDirs lists the directories a batch writes into: the output directory
// when one is set, otherwise the parent of every existing candidate.
func writeDirs(outputDir string, candidates []string) []string {
	if outputDir != "" {
		return []string{outputDir}
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, path := range candidates {
		dir := filepath.Dir(path)
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// acquireLocks takes the run lock in every directory the batch writes into.
// An output directory must be writable. Unwritable input directories are
// skipped with a warning; their files fail individually.
func acquireLocks(outputDir string, candidates []string, logger hclog.Logger) ([]*runlock.Lock, error) {
	var locks []*runlock.Lock
	release := func() {
		for _, l := range locks {
			_ = l.Release()
		}
	}
	for _, dir := range writeDirs(outputDir, candidates) {
		if outputDir == "" {
			if st := deps.CheckDirectoryAccess("Input directory", dir); !st.Available {
				logger.Warn("not locking input directory", "dir", dir, "detail", st.Detail)
				continue
			}
		}
		lock, err := runlock.Acquire(dir)
		if err != nil {
			release()
			return nil, err
		}
		locks = append(locks, lock)
		if outputDir != "" {
			if st := deps.CheckDirectoryAccess("Output directory", dir); !st.Available {
				release()
				return nil, fmt.Errorf("output directory %s: %s", dir, st.Detail)
			}
		}
	}
	return locks, nil
}

// printProgress is the non-interactive progress view: one line per started
// and finished file, and one per ten percent of estimated progress.
func printProgress(w io.Writer, updates <-chan processor.ProgressUpdate) {
	lastDecile := make(map[string]int)
	for u := range updates {
		if u.Path == "" {
			continue
		}
		name := filepath.Base(u.Path)
		switch {
		case u.Started:
			lastDecile[u.Path] = 0
			fmt.Fprintf(w, "converting %s\n", name)
		case u.Finished:
			delete(lastDecile, u.Path)
			fmt.Fprintf(w, "%s: %s\n", name, u.Status)
		case u.Indeterminate:
		default:
			decile := u.Percent / 10
			if decile > lastDecile[u.Path] {
				lastDecile[u.Path] = decile
				fmt.Fprintf(w, "%s: %d%%\n", name, u.Percent)
			}
		}
	}
}

// renderOutcomes lists every file with its status.
func renderOutcomes(outcomes []converter.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, out := range outcomes {
		detail := out.Output
		switch out.Status {
		case converter.StatusFailed:
			detail = out.Reason()
			if out.Err != nil {
				detail += ": " + firstLine(out.Err.Error())
			}
		case converter.StatusSucceeded:
			if out.DeleteErr != nil {
				detail += " (original kept: " + out.DeleteErr.Error() + ")"
			}
		}
		rows = append(rows, []string{
			filepath.Base(out.Input),
			out.Status.String(),
			out.Duration.String(),
			out.Elapsed.Round(100 * time.Millisecond).String(),
			detail,
		})
	}
	return renderTable([]column{
		{Title: "File", Max: 40},
		{Title: "Status"},
		{Title: "Length", Right: true},
		{Title: "Took", Right: true},
		{Title: "Detail", Max: 60},
	}, rows)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func bindConvertFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&convertFormat, "format", "f", "", "output format: mp3 or wav (default mp3)")
	flags.StringVarP(&convertBitrate, "bitrate", "b", "", "audio bitrate, e.g. 192k")
	flags.IntVarP(&convertSampleRate, "samplerate", "r", 0, "sample rate in Hz (default 44100)")
	flags.StringVarP(&convertOutputDir, "output", "o", "", "destination folder (default: next to each input; the run lock is taken in every folder written to)")
	flags.BoolVarP(&convertOverwrite, "overwrite", "y", false, "replace existing audio files")
	flags.BoolVar(&convertDeleteOriginal, "delete-original", false, "delete each video after a successful conversion")
	flags.BoolVar(&convertSanitize, "sanitize", false, "replace unusual characters in output file names")
	flags.BoolVarP(&convertRecursive, "recursive", "R", false, "descend into subdirectories")
	flags.IntVarP(&convertWorkers, "workers", "j", 0, "files converted in parallel (default 1)")
	flags.BoolVar(&convertNoTUI, "no-tui", false, "plain progress output even on a terminal")
}

func init() {
	bindConvertFlags(convertCmd.Flags())
	rootCmd.AddCommand(convertCmd)
}
