package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/analyzer"
	"github.com/Rana718/migcheck/internal/config"
	"github.com/Rana718/migcheck/internal/migration"
	"github.com/Rana718/migcheck/internal/repair"
	"github.com/Rana718/migcheck/internal/report"
	"github.com/Rana718/migcheck/internal/watch"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dirs...]",
	Short: "Check migrations for dependency issues",
	Long: `Analyse one or more migration directories and report:
- migrations referencing tables that no earlier migration creates
- migrations sharing the same timestamp
- circular foreign key dependencies
- tables created by more than one migration

A suggested execution order is printed for every directory. The command
exits with status 1 when any issue is found.

With --fix, migrations with conflicting timestamps are renumbered on disk
and the directory is analysed again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		fix, _ := cmd.Flags().GetBool("fix")
		watchMode, _ := cmd.Flags().GetBool("watch")

		dirs := migrationDirs(cfg, args)
		loaders := newLoaders(dirs, logger)
		out := cmd.OutOrStdout()

		if !watchMode {
			return runValidate(cmd.Context(), out, cfg, logger, loaders, fix)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rerun := func() error {
			err := runValidate(ctx, out, cfg, logger, loaders, fix)
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return nil
			}
			return err
		}
		if err := rerun(); err != nil {
			color.Red("❌ %v", err)
		}

		fmt.Fprintln(out)
		color.Cyan("👀 Watching %s for changes (Ctrl+C to stop)", strings.Join(dirs, ", "))
		return watch.Run(ctx, dirs, watch.DefaultDebounce, func() error {
			fmt.Fprintln(out)
			return rerun()
		}, logger)
	},
}

// runValidate analyses every loader, optionally repairs timestamp
// conflicts, and renders the report. A failed repair is returned after the
// detection report has been written; otherwise an *ExitError signals that
// issues remain.
func runValidate(ctx context.Context, out io.Writer, cfg *config.Config, logger *zap.Logger, loaders []*migration.Loader, fix bool) error {
	a := newAnalyzer(cfg, logger)

	results, err := analyzeAll(ctx, a, loaders)
	if err != nil {
		return err
	}

	entries := make([]report.Entry, len(results))
	for i, res := range results {
		entries[i] = report.Entry{Result: res}
	}

	var repairErr error
	if fix {
		for i, res := range results {
			renames := repair.Plan(recordIDs(res), res.Issues)
			if len(renames) == 0 {
				continue
			}
			if err := repair.Apply(loaders[i], renames, logger); err != nil {
				repairErr = err
				break
			}

			after, err := analyzeAll(ctx, a, loaders[i:i+1])
			if err != nil {
				return fmt.Errorf("failed to re-analyse %s after repair: %w", loaders[i].Dir(), err)
			}
			entries[i] = report.Entry{Result: after[0], Repairs: renames}
		}
	}

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if err := report.New(out, format).Render(entries); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if repairErr != nil {
		return repairErr
	}

	for _, e := range entries {
		if !e.Result.Clean {
			return &ExitError{Code: 1}
		}
	}
	return nil
}

func recordIDs(res *analyzer.Result) []string {
	ids := make([]string, len(res.Records))
	for i, rec := range res.Records {
		ids[i] = rec.ID
	}
	return ids
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addAnalysisFlags(validateCmd)
	validateCmd.Flags().Bool("fix", false, "Renumber migrations with conflicting timestamps")
	validateCmd.Flags().BoolP("watch", "w", false, "Re-run validation whenever a migration file changes")
}
