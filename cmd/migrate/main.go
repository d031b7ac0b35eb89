package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"apparel-configurator/internal/config"
	"apparel-configurator/internal/storage"
	"apparel-configurator/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "up, down or status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	pg, err := storage.NewPostgresStorage(ctx, cfg.Database, nil, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	switch *direction {
	case "up":
		err = storage.RunMigrations(ctx, pg.DB(), zapLogger)
	case "down":
		err = storage.RollbackMigration(ctx, pg.DB(), zapLogger)
	case "status":
		err = storage.MigrationStatus(ctx, pg.DB(), zapLogger)
	default:
		err = fmt.Errorf("unknown direction %q", *direction)
	}
	if err != nil {
		zapLogger.Fatal("Migration failed", zap.Error(err))
	}
}
