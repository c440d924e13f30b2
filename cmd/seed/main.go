// seed loads a YAML fixture of demo users, friendships, groups and memos
// into the configured database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/router"
	"github.com/anonto42/memomap/backend/internal/services"
	"github.com/anonto42/memomap/backend/internal/storage"
	"github.com/anonto42/memomap/backend/pkg/config"
	"github.com/anonto42/memomap/backend/pkg/logger"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var fixturePath string
	var migrate bool

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&fixturePath, "file", "f", "seed.yaml", "path to the YAML fixture")
	flagSet.BoolVar(&migrate, "migrate", true, "run schema migrations before seeding")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	file, err := os.Open(fixturePath)
	if err != nil {
		return fmt.Errorf("opening fixture: %w", err)
	}
	defer file.Close()
	fixture, err := decodeFixture(file)
	if err != nil {
		return err
	}

	db, err := config.InitDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if migrate {
		if err := repositories.AutoMigrate(db.Postgres); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}

	svc := router.NewServices(router.Deps{
		Config:              cfg,
		Postgres:            db.Postgres,
		Store:               storage.NewMemoryStore(),
		Logger:              log,
		Metrics:             metrics.New(),
		NotificationOptions: []services.NotificationOption{services.WithSyncDelivery()},
	})
	return newSeeder(svc, log).Apply(context.Background(), fixture)
}
