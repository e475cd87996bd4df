package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"chirp/internal/config"
	"chirp/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will do against one database.
//
//	sql     versioned scripts only
//	auto    GORM AutoMigrate only; refused in production unless explicitly allowed
//	hybrid  scripts everywhere, AutoMigrate outside production
//
// Scripts are PostgreSQL DDL; on any other dialect they are replaced by AutoMigrate.
type schemaPlan struct {
	Mode    string
	Dialect string
	RunSQL  bool
	RunAuto bool
}

func planSchema(cfg *config.Config, dialect string) (schemaPlan, error) {
	p := schemaPlan{
		Mode:    strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Dialect: dialect,
	}
	if p.Mode == "" {
		p.Mode = SchemaModeHybrid
	}
	prod := slices.Contains([]string{"production", "prod", "staging", "stage"}, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch p.Mode {
	case SchemaModeSQL:
		p.RunSQL = true
	case SchemaModeAuto:
		if prod && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.RunAuto = true
	case SchemaModeHybrid:
		p.RunSQL = true
		p.RunAuto = !prod
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.Mode)
	}

	if p.RunSQL && dialect != "postgres" {
		p.RunSQL = false
		p.RunAuto = true
	}
	return p, nil
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg, db.Dialector.Name())
	if err != nil {
		return err
	}
	logger := middleware.Logger.With(slog.String("mode", plan.Mode), slog.String("dialect", plan.Dialect))

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		logger.Info("running gorm automigrate", slog.String("env", cfg.Env))
		if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus reports the resolved plan and, when scripts would run, which are pending.
type SchemaStatus struct {
	schemaPlan
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg, db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{schemaPlan: plan, Environment: cfg.Env}
	if !plan.RunSQL {
		return status, nil
	}

	all, err := GetMigrations()
	if err != nil {
		return nil, err
	}
	if status.AppliedVersions, err = NewMigrationStore(db).GetAppliedMigrations(ctx); err != nil {
		return nil, err
	}
	for _, m := range all {
		if !slices.Contains(status.AppliedVersions, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
