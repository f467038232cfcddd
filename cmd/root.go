package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/cognigen/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "cognigen",
	Short: "Terminal client for AI-generated learning paths",
	Long:  "Cognigen: generate personalized learning paths, edit their notebooks and practice with quizzes from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the environment may already be set.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("api", "", "Learning API base URL (overrides COGNIGEN_API_URL)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COGNIGEN_DB)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (overrides COGNIGEN_LOG_FILE)")

	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(sandboxCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration: flags first, then COGNIGEN_*
// variables, then defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("api"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.LogFile = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
