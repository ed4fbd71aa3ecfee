package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rana718/migcheck/internal/report"
)

var graphCmd = &cobra.Command{
	Use:   "graph [dirs...]",
	Short: "Show which migrations create, alter and reference each table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		results, err := analyzeAll(cmd.Context(), newAnalyzer(cfg, logger), newLoaders(migrationDirs(cfg, args), logger))
		if err != nil {
			return err
		}

		format, err := report.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		if err := report.New(cmd.OutOrStdout(), format).Graph(results); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addAnalysisFlags(graphCmd)
}
