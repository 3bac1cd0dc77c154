package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/receipts/internal/infrastructure/config"
	"github.com/erp/receipts/internal/infrastructure/logger"
	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the connection pool and its instrumentation
type Database struct {
	DB          *gorm.DB
	poolMetrics *telemetry.DBPoolMetrics
}

// databaseOptions collects the optional parts of NewDatabase
type databaseOptions struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	tracing       *telemetry.DBTracingPlugin
	metrics       *telemetry.MeterProvider
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

// WithLogger routes GORM logs through zap at level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithSlowQueryThreshold logs queries slower than d as warnings
func WithSlowQueryThreshold(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.slowThreshold = d
	}
}

// WithTracing registers the otelgorm tracing plugin
func WithTracing(plugin *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = plugin
	}
}

// WithPoolMetrics reports connection pool gauges on mp
func WithPoolMetrics(mp *telemetry.MeterProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = mp
	}
}

// NewDatabase connects to PostgreSQL, applies pool settings and pings.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	return openDatabase(postgres.Open(cfg.DSN()), cfg, opts...)
}

func openDatabase(dialector gorm.Dialector, cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := &databaseOptions{logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(o)
	}

	gormCfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
	if o.logger != nil {
		var gormOpts []logger.GormLoggerOption
		if o.slowThreshold > 0 {
			gormOpts = append(gormOpts, logger.WithSlowThreshold(o.slowThreshold))
		}
		gormCfg.Logger = logger.NewGormLogger(o.logger, o.logLevel, gormOpts...)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if o.tracing != nil {
		if err := o.tracing.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &Database{DB: db}
	if o.metrics != nil && o.metrics.IsEnabled() {
		pm, err := telemetry.NewDBPoolMetrics(o.metrics.Meter("receipts/db"), sqlDB)
		if err != nil {
			return nil, err
		}
		d.poolMetrics = pm
	}
	return d, nil
}

// Close stops pool metrics and closes the connection pool
func (d *Database) Close() error {
	if err := d.poolMetrics.Stop(); err != nil {
		return fmt.Errorf("failed to stop pool metrics: %w", err)
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
