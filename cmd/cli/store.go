package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"breakfit/adapters/db/postgres/migrations"
	"breakfit/adapters/postgres"
	"breakfit/internal/container"
	"breakfit/ports"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured selection profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printProfiles(os.Stdout, cfg.Selector.Profiles, cfg.Selector.Profile)
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List selection runs stored in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("runs needs DATABASE_URL")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			if err := c.Init(ctx); err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			runs, err := c.Selections.Reader().ListRuns(ctx, ports.RunFilters{Limit: limit})
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("migrate needs DATABASE_URL")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			m := migrations.NewMigrator(db)
			if !status {
				if err := m.Up(ctx); err != nil {
					return err
				}
			}
			list, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range list {
				if s.Applied {
					selectedColor.Printf("  applied  %s %s\n", s.Version, s.Name)
				} else {
					outlierColor.Printf("  pending  %s %s\n", s.Version, s.Name)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Only show which migrations are applied")
	return cmd
}
