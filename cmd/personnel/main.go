package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ksdhq/personnel/internal/adapters/console"
	filerepo "github.com/ksdhq/personnel/internal/adapters/repository/file"
	pgrepo "github.com/ksdhq/personnel/internal/adapters/repository/postgres"
	"github.com/ksdhq/personnel/internal/core/audit"
	"github.com/ksdhq/personnel/internal/core/employee"
	"github.com/ksdhq/personnel/internal/core/report"
	"github.com/ksdhq/personnel/internal/platform/config"
	pg "github.com/ksdhq/personnel/internal/platform/db/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		repo     employee.Repository
		recorder audit.Recorder
		tx       employee.TransactionManager
	)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to initialize database pool: %v", err)
		}
		defer pool.Close()

		repo = pgrepo.NewEmployeeRepository(pool)
		recorder = pgrepo.NewAuditRepository(pool)
		tx = pg.NewTransactionManager(pool)

	case config.DriverFile:
		store, err := filerepo.NewStore(cfg.Storage.File.Path, cfg.Storage.File.BackupDir)
		if err != nil {
			log.Fatalf("failed to open record store: %v", err)
		}
		auditLog, err := filerepo.NewAuditLog(cfg.Storage.File.AuditPath)
		if err != nil {
			log.Fatalf("failed to open audit log: %v", err)
		}

		repo = store
		recorder = auditLog

	default:
		log.Fatalf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	svc := employee.NewService(repo, recorder, nil, tx)
	reports := report.NewService(repo, nil)

	if err := console.New(svc, reports, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("console stopped with error: %v", err)
	}
}
