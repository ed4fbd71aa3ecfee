package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/analyzer"
	"github.com/Rana718/migcheck/internal/config"
	"github.com/Rana718/migcheck/internal/extract"
	"github.com/Rana718/migcheck/internal/logging"
	"github.com/Rana718/migcheck/internal/migration"
)

// addAnalysisFlags registers the flags shared by every command that
// analyses migrations.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "o", "", "Output format: text, json or yaml")
	cmd.Flags().String("dialect", "", "Migration dialect: auto, sql or blueprint")
	cmd.Flags().Bool("no-guess", false, "Do not infer foreign key targets from column names")
}

// setup loads and validates the config, applies command line overrides and
// builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("format") {
		cfg.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("dialect") {
		cfg.Dialect, _ = cmd.Flags().GetString("dialect")
	}
	if noGuess, _ := cmd.Flags().GetBool("no-guess"); noGuess {
		cfg.Analysis.GuessForeignKeys = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// migrationDirs returns the directories named on the command line, or the
// configured one.
func migrationDirs(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{cfg.MigrationsPath}
}

func newLoaders(dirs []string, logger *zap.Logger) []*migration.Loader {
	loaders := make([]*migration.Loader, len(dirs))
	for i, dir := range dirs {
		loaders[i] = migration.NewLoader(dir, migration.WithLogger(logger))
	}
	return loaders
}

func newAnalyzer(cfg *config.Config, logger *zap.Logger) *analyzer.Analyzer {
	opts := append(cfg.ExtractorOptions(), extract.WithLogger(logger))
	return analyzer.New(extract.New(opts...), logger)
}

func analyzeAll(ctx context.Context, a *analyzer.Analyzer, loaders []*migration.Loader) ([]*analyzer.Result, error) {
	sets := make([]analyzer.Source, len(loaders))
	for i, l := range loaders {
		sets[i] = l
	}
	return a.AnalyzeAll(ctx, sets)
}
