package database

import (
	"context"
	"testing"
	"testing/fstest"

	"chirp/internal/config"
	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "chirp"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=chirp sslmode=disable", dsn)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		dialect  string
		allow    bool
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", "hybrid", "development", "postgres", false, true, true, false},
		{"hybrid prod", "", "production", "postgres", false, true, false, false},
		{"sql", "sql", "development", "postgres", false, true, false, false},
		{"sql on sqlite", "sql", "test", "sqlite", false, false, true, false},
		{"auto dev", "auto", "development", "postgres", false, false, true, false},
		{"auto prod refused", "auto", "production", "postgres", false, false, false, true},
		{"auto prod allowed", "auto", "prod", "postgres", true, false, true, false},
		{"unknown", "yolo", "development", "postgres", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planSchema(&config.Config{
				DBSchemaMode:                  tt.mode,
				Env:                           tt.env,
				DBAutoMigrateAllowDestructive: tt.allow,
			}, tt.dialect)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.RunSQL)
			assert.Equal(t, tt.wantAuto, plan.RunAuto)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000002_second.down.sql": {Data: []byte("SELECT -2;")},
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT -1;")},
		"m/README.md":              {Data: []byte("ignored")},
	}

	all, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "000002_second", all[1].String())
	assert.Equal(t, "SELECT -2;", all[1].DownScript)
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_first.up.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	all, err := GetMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 2)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS posts")
	assert.Contains(t, all[1].UpScript, "to_tsvector('simple', body)")
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions([]int{1}, registered))
	assert.ErrorContains(t, validateAppliedVersions([]int{1, 7}, registered), "000007")
}

func TestApplySchema_SQLiteFallsBackToAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = ApplySchema(context.Background(), db, &config.Config{DBSchemaMode: "sql", Env: "test"})
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
}

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.Post{}))
	assert.NoError(t, Ping(context.Background(), db))
}

func TestGetSchemaStatus_SQLite(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, &config.Config{Env: "development"})
	require.NoError(t, err)
	assert.Equal(t, SchemaModeHybrid, status.Mode)
	assert.False(t, status.RunSQL)
	assert.True(t, status.RunAuto)
	assert.Empty(t, status.PendingMigrations)
}

func TestMigrationStore_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, db.AutoMigrate(&AppliedMigration{}))
	m := Migration{Version: 3, Name: "widgets", UpScript: "CREATE TABLE widgets (id INTEGER)", DownScript: "DROP TABLE widgets"}
	require.NoError(t, store.ApplyMigration(ctx, m))
	assert.True(t, db.Migrator().HasTable("widgets"))

	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, applied)

	require.NoError(t, store.RemoveMigration(ctx, m))
	assert.False(t, db.Migrator().HasTable("widgets"))
	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
