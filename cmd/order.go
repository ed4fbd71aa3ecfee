package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rana718/migcheck/internal/report"
)

var orderCmd = &cobra.Command{
	Use:   "order [dirs...]",
	Short: "Print a safe execution order",
	Long: `Print the suggested execution order of the migrations, one identifier per
line. Creators of referenced tables come first; circular dependencies are
broken rather than reported, so the command always succeeds when the
migrations can be read. Use "validate" to see the issues themselves.`,
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
		if err := report.New(cmd.OutOrStdout(), format).Order(results); err != nil {
			return fmt.Errorf("failed to write order: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
	addAnalysisFlags(orderCmd)
}
