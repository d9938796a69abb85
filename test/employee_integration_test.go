//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	repo "github.com/ksdhq/personnel/internal/adapters/repository/postgres"
	"github.com/ksdhq/personnel/internal/core/audit"
	"github.com/ksdhq/personnel/internal/core/employee"
	"github.com/ksdhq/personnel/internal/platform/config"
	pg "github.com/ksdhq/personnel/internal/platform/db/postgres"
)

const migrationsDir = "assets/migrations"

func TestEmployeeCRUDIntegration(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(configPathFromEnv())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	empRepo := repo.NewEmployeeRepository(pool)
	auditRepo := repo.NewAuditRepository(pool)
	txm := pg.NewTransactionManager(pool)
	svc := employee.NewService(empRepo, auditRepo, stubClock{now: time.Now().UTC()}, txm)

	created, err := svc.CreateEmployee(ctx, employee.CreateEmployeeInput{
		ID:          "it-emp-1",
		Kind:        employee.KindGeneralManager,
		FirstName:   "ann",
		LastName:    "jones",
		Department:  "ENG",
		Phone:       "(555)-123-4567",
		YearStarted: 2016,
		BaseSalary:  100000,
		Projects:    []employee.Project{{Name: "Atlas", Revenue: 100000}},
	})
	if err != nil {
		t.Fatalf("CreateEmployee error: %v", err)
	}
	if created.FirstName != "Ann" || created.Phone != "5551234567" {
		t.Fatalf("expected normalized record, got %+v", created)
	}

	found, err := empRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if found.Kind != employee.KindGeneralManager || len(found.Projects) != 1 {
		t.Fatalf("expected general manager with project restored, got %+v", found)
	}

	updated, err := svc.UpdateEmployee(ctx, employee.UpdateEmployeeInput{
		ID:          created.ID,
		AddProjects: []employee.Project{{Name: "Borealis", Revenue: 50000}},
	})
	if err != nil {
		t.Fatalf("UpdateEmployee error: %v", err)
	}
	if len(updated.Projects) != 2 {
		t.Fatalf("expected appended project, got %+v", updated.Projects)
	}

	result, err := svc.Backup(ctx, employee.BackupInput{Name: "integration-backup"})
	if err != nil {
		t.Fatalf("Backup error: %v", err)
	}
	if result.RecordCount != 1 {
		t.Fatalf("expected 1 record in backup, got %d", result.RecordCount)
	}

	if err := svc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: created.ID}); err != nil {
		t.Fatalf("DeleteEmployee error: %v", err)
	}

	if _, err := empRepo.FindByID(ctx, created.ID); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	entries, err := svc.AuditEntries(ctx)
	if err != nil {
		t.Fatalf("AuditEntries error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	want := []audit.Kind{audit.KindCreate, audit.KindUpdate, audit.KindDelete}
	for i, kind := range want {
		if entries[i].Kind != kind {
			t.Fatalf("entry %d: expected %s, got %s", i, kind, entries[i].Kind)
		}
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "assets/local.yaml"
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}
