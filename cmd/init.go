package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Rana718/migcheck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a migcheck config file",
	Long: `Write a default ` + config.FileName + ` into the current directory and create
the migrations directory it points at. An existing config file is kept
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return runInit(force)
	},
}

func runInit(force bool) error {
	if config.IsInitialized() && !force {
		color.Yellow("⚠️  %s already exists, use --force to overwrite it", config.FileName)
		return nil
	}

	path, err := config.InitializeProject(".", force)
	if err != nil {
		return err
	}
	color.Green("✅ Created %s", path)

	dir := config.DefaultConfig().MigrationsPath
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	color.Green("📁 Migrations directory: %s", dir)

	fmt.Println()
	color.Cyan("Next: add migrations to %s and run 'migcheck validate'", dir)
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}
