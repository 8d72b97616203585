package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"breakfit/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "breakfit",
		Short:         "Choose the number of linear segments in a time series and flag outliers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				log.Printf("Ignoring .env: %v", err)
			}
		},
	}

	rootCmd.AddCommand(
		newSelectCmd(),
		newProfilesCmd(),
		newRunsCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
