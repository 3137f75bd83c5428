package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/storage/db"
	"teamsync-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("migrate.config_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
	version, err := db.MigrationStatus(ctx, sqlDB)
	if err != nil {
		telemetry.Error("migrate.status_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"version": version})
}
