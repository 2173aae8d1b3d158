package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"appointly/backend/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig("migrator")
		if err != nil {
			return err
		}
		log.Info("applying migrations", databaseLogArgs(cfg.DatabaseURL)...)
		if err := postgres.MigrateUp(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		cmd.Println("migrations applied successfully")
		return nil
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long:  `Rolls back the last --steps migrations, or every migration when --steps is 0.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig("migrator")
		if err != nil {
			return err
		}
		log.Info("rolling back migrations", slog.Int("steps", migrateDownSteps))
		if err := postgres.MigrateDown(cfg.DatabaseURL, migrateDownSteps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		cmd.Println("migrations downed successfully")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back (0 = all)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
