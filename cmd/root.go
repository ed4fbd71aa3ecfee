package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rana718/migcheck/internal/config"
)

var (
	cfgFile string
	verbose bool
	Version = "0.3.0"
)

// ExitError asks main to exit with Code without printing anything else.
// Validation returns it when issues were found.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║   migcheck                                   ║",
		"║   🔍 Static migration dependency analysis    ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("   ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "migcheck",
	Short: "Find ordering problems in database migrations without a database",
	Long: `
migcheck reads a directory of migration files, works out which tables each
migration creates, alters and references, and reports:

- migrations that reference tables no earlier migration creates
- migrations that share a timestamp
- circular foreign key dependencies between tables

It also suggests a safe execution order and can renumber conflicting
timestamps. Plain SQL and Laravel-style schema builder files are supported.

Running migcheck without a subcommand is the same as "migcheck validate".`,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "migcheck version %s\n", Version)
			return nil
		}

		showBanner()
		fmt.Println()
		return cmd.Help()
	},
}

func Execute() error {
	if defaultToValidate(os.Args[1:]) {
		rootCmd.SetArgs(append([]string{validateCmd.Name()}, os.Args[1:]...))
	}
	return rootCmd.Execute()
}

// defaultToValidate reports whether args name no subcommand, in which case
// validate runs. Leading flags and positional directories both qualify.
func defaultToValidate(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "-h", "--help", "-v", "--version":
		return false
	}
	if strings.HasPrefix(args[0], "-") {
		return true
	}

	rootCmd.InitDefaultHelpCmd()
	rootCmd.InitDefaultCompletionCmd()
	found, _, err := rootCmd.Find(args)
	return err != nil || found == rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".json"))
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		color.Yellow("⚠️  Could not read config file %s: %v", cfgFile, err)
	}
}
