package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harrison/prunefiles/internal/config"
	"github.com/harrison/prunefiles/internal/filelock"
	"github.com/harrison/prunefiles/internal/logger"
	"github.com/harrison/prunefiles/internal/pruner"
	"github.com/harrison/prunefiles/internal/report"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for prunefiles
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

// newRootCommand builds the command against fs so tests can swap the
// filesystem.
func newRootCommand(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prunefiles <folder>",
		Short: "Prune old files from a folder by count or total size",
		Long: `prunefiles keeps the newest files of a folder and removes the rest.

Files directly inside <folder> are optionally filtered by a name pattern,
sorted by their stem or by a field captured from the pattern, and then
limited by count and/or cumulative size. The files that sort last are the
ones kept.

Examples:
  # Keep the 10 newest log files
  prunefiles /var/log/app --match-format "app-{date}.log" --orderby date --keep-count 10

  # Keep at most 1 GiB of backups, ordering numerically by sequence number
  prunefiles ./backups --match-format "backup_{n:d}.tar.gz" --orderby n --keep-size 1GiB

  # Same with a regular expression, showing what would be removed
  prunefiles ./backups --match-regex 'backup_(?P<n>\d+)\.tar\.gz' --orderby n --keep-count 3 --dry-run

  # Machine-readable report
  prunefiles ./exports --keep-count 5 --output yaml --report-file prune.yaml`,
		Version: Version,
		Args:    cobra.ExactArgs(1),
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd, fs, args[0])
		},
	}

	cmd.Flags().String("match-format", "", "Template the file name must match, e.g. \"log_{n:d}.txt\"")
	cmd.Flags().String("match-regex", "", "Regular expression the whole file name must match (exclusive with --match-format)")
	cmd.Flags().Bool("match-case-sensitive", false, "Match file names case-sensitively")
	cmd.Flags().String("orderby", "", "Captured field used as sort key (default: file stem)")
	cmd.Flags().Bool("order-reverse", false, "Sort descending, keeping the files that sort first")
	cmd.Flags().Int("keep-count", 0, "Number of files to keep (must be > 0)")
	cmd.Flags().String("keep-size", "", "Maximum total size of kept files, e.g. 500MB or 1.5GiB")
	cmd.Flags().Bool("dry-run", false, "Report what would be removed without deleting anything")
	cmd.Flags().StringP("output", "o", "text", "Report format: text or yaml")
	cmd.Flags().String("report-file", "", "Also write the report to this file")
	cmd.Flags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Bool("no-lock", false, "Do not take the per-folder lock")

	return cmd
}

// configFromFlags builds a Config from the command line. keep-count and
// keep-size only enable their limiter when given explicitly.
func configFromFlags(cmd *cobra.Command, folder string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Folder = folder

	flags := cmd.Flags()
	cfg.MatchFormat, _ = flags.GetString("match-format")
	cfg.MatchRegex, _ = flags.GetString("match-regex")
	cfg.MatchCaseSensitive, _ = flags.GetBool("match-case-sensitive")
	cfg.OrderBy, _ = flags.GetString("orderby")
	cfg.OrderReverse, _ = flags.GetBool("order-reverse")
	cfg.DryRun, _ = flags.GetBool("dry-run")
	cfg.Output, _ = flags.GetString("output")
	cfg.ReportFile, _ = flags.GetString("report-file")
	cfg.LogLevel, _ = flags.GetString("log-level")
	cfg.NoLock, _ = flags.GetBool("no-lock")

	if flags.Changed("keep-count") {
		keepCount, _ := flags.GetInt("keep-count")
		cfg.KeepCount = &keepCount
	}
	if flags.Changed("keep-size") {
		keepSize, _ := flags.GetString("keep-size")
		cfg.KeepSize = &keepSize
	}

	return cfg
}

// runPrune implements the root command
func runPrune(cmd *cobra.Command, fs afero.Fs, folder string) error {
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}

	cfg := configFromFlags(cmd, folder)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateFolder(fs); err != nil {
		return err
	}

	renderer, err := report.New(cfg.Output, colorEnabled(cmd.OutOrStdout()))
	if err != nil {
		return &config.ConfigurationError{Option: "output", Err: err}
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	if !cfg.NoLock {
		lock := filelock.NewDirLock(cfg.Folder)
		if err := lock.TryLock(); err != nil {
			return err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.LogWarn(err.Error())
			}
		}()
		log.LogDebug(fmt.Sprintf("Acquired lock %s", lock.Path()))
	}

	opts, err := cfg.PrunerOptions()
	if err != nil {
		return err
	}
	p, err := pruner.New(fs, opts, log)
	if err != nil {
		return err
	}

	log.LogRunStart(cfg.Folder, cfg.DryRun)

	ctx := cmd.Context()
	plan, err := p.Plan(ctx)
	if err != nil {
		return err
	}
	result, execErr := p.Execute(ctx, plan)

	// The report is written even when a removal failed so the user sees
	// how far the run got.
	if err := renderer.Render(cmd.OutOrStdout(), result); err != nil {
		return errors.Join(execErr, fmt.Errorf("failed to write report: %w", err))
	}
	if cfg.ReportFile != "" {
		if err := writeReportFile(cfg, result); err != nil {
			return errors.Join(execErr, err)
		}
		log.LogDebug(fmt.Sprintf("Wrote report to %s", cfg.ReportFile))
	}

	log.LogRunSummary(result)
	if execErr != nil {
		log.LogError(execErr.Error())
	}
	return execErr
}

// writeReportFile renders result without color and writes it atomically.
func writeReportFile(cfg *config.Config, result *pruner.Result) error {
	renderer, err := report.New(cfg.Output, false)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, result); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return filelock.AtomicWrite(cfg.ReportFile, buf.Bytes())
}

// colorEnabled reports whether w is a color-capable terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
