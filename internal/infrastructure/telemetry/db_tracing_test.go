package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedCounter struct {
	ID   int64 `gorm:"primaryKey"`
	Last int64
}

func openTracedDB(t *testing.T, cfg telemetry.DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	require.NoError(t, db.AutoMigrate(&tracedCounter{}))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: false})

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedCounter{ID: 1}).Error)
	assert.Empty(t, sr.Ended())
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	sr := setupTestTracer(t)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBName = "receipts"
	db := openTracedDB(t, cfg)

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedCounter{ID: 1, Last: 7}).Error)

	var got tracedCounter
	require.NoError(t, db.WithContext(ctx).First(&got, 1).Error)
	assert.Equal(t, int64(7), got.Last)

	var spanTables []string
	for _, s := range sr.Ended() {
		for _, a := range s.Attributes() {
			if a.Key == "db.sql.table" {
				spanTables = append(spanTables, a.Value.AsString())
			}
		}
	}
	assert.Contains(t, spanTables, "traced_counters")
}

func TestDBTracingPlugin_FlagsSlowQueries(t *testing.T) {
	sr := setupTestTracer(t)
	db := openTracedDB(t, telemetry.DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond})

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedCounter{ID: 2}).Error)

	slow := false
	for _, s := range sr.Ended() {
		for _, a := range s.Attributes() {
			if a.Key == "db.slow_query" && a.Value.AsBool() {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}
