// Package bootstrap wires process-level dependencies for the commands.
package bootstrap

import (
	"context"
	"fmt"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ApplySchema bool
	// SeedScenario, when set, is a YAML scenario applied after the schema.
	SeedScenario string
}

// InitRuntime connects to DB and Redis, applies the schema and optionally seeds.
// A missing Redis is not fatal; the returned client is nil in that case.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedScenario != "" {
		if err := SeedFromFile(ctx, db, opts.SeedScenario, seed.Options{}); err != nil {
			return nil, nil, err
		}
	}

	return db, r, nil
}

// SeedFromFile loads a scenario file and applies it.
func SeedFromFile(ctx context.Context, db *gorm.DB, path string, opts seed.Options) error {
	sc, err := seed.LoadScenarioFile(path)
	if err != nil {
		return fmt.Errorf("load seed scenario: %w", err)
	}
	if _, err := seed.NewSeeder(db, opts).Apply(ctx, sc); err != nil {
		return fmt.Errorf("apply seed scenario: %w", err)
	}
	return nil
}
