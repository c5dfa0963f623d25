package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizzer-backend/internal/config"
	"quizzer-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("✗ PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	applied, err := database.RunMigrations(ctx, pool, database.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("✗ Database migration failed: %w", err)
	}
	log.Printf("✓ Database migrations applied (%d new)", applied)
	return nil
}
