package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func setupGoose() error {
	goose.SetBaseFS(migrationsFS)
	return goose.SetDialect("postgres")
}

func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	const operation = "storage.RunMigrations"

	logger.Info("Running database migrations...")

	if err := setupGoose(); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func RollbackMigration(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	const operation = "storage.RollbackMigration"

	logger.Info("Rolling back last migration...")

	if err := setupGoose(); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to rollback migration: %w", operation, err)
	}

	logger.Info("Migration rollback completed")
	return nil
}

func MigrationStatus(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	const operation = "storage.MigrationStatus"

	logger.Info("Checking migration status...")

	if err := setupGoose(); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to check migration status: %w", operation, err)
	}

	return nil
}
