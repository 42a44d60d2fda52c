package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx, registers the given
// plugins (the change-feed source among them), migrates the POS tables and
// applies the idempotent SQL patches GORM cannot express.
func NewDatabase(dsn string, plugins ...gorm.Plugin) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(200 * time.Millisecond),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	for _, p := range plugins {
		if err := db.Use(p); err != nil {
			return nil, fmt.Errorf("plugin %q: %w", p.Name(), err)
		}
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the POS tables and applies schema patches.
// Integration tests call it directly on a container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Employee{},
		&model.Product{},
		&model.Table{},
		&model.Order{},
		&model.CashRegister{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open register, even across replicas.
		{"single open register", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_registers_single_open
    ON cash_registers ((status))
    WHERE status = 'open'`},
		// Reconciler scans finalized orders by finalization time.
		{"finalized orders by time", `
CREATE INDEX IF NOT EXISTS idx_orders_finalized_at
    ON orders (finalized_at)
    WHERE status = 'finalized'`},
		// HasSale uses jsonb containment on the sales log.
		{"sales log containment", `
CREATE INDEX IF NOT EXISTS idx_cash_registers_sales_log
    ON cash_registers USING GIN (sales_log jsonb_path_ops)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// ── zerolog adapter ──────────────────────────────────────────────────────────

// GormLogger routes GORM's logging through the global zerolog logger.
// Queries slower than slowThreshold are logged as warnings; errors other than
// record-not-found are logged as errors; everything else stays at trace.
type GormLogger struct {
	slowThreshold time.Duration
	level         logger.LogLevel
}

func NewGormLogger(slowThreshold time.Duration) *GormLogger {
	return &GormLogger{slowThreshold: slowThreshold, level: logger.Warn}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		log.Info().Msgf("gorm: "+msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		log.Warn().Msgf("gorm: "+msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		log.Error().Msgf("gorm: "+msg, args...)
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev = log.Error().Err(err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		ev = log.Warn().Str("slow_threshold", l.slowThreshold.String())
	case l.level >= logger.Info:
		ev = log.Trace()
	default:
		return
	}
	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
}
