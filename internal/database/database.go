package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmoforge/skillstore/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pools holds the three connection pools. LOAD serves the hot read path for
// active sessions, SAVE the hot write path, MISC everything else (schema,
// leaderboards, purges, bulk imports). Each has its own size limits so a
// flood of misc work can never starve loads or saves.
type Pools struct {
	Load *gorm.DB
	Save *gorm.DB
	Misc *gorm.DB
}

// Connect opens and validates all three pools against the same DSN.
func Connect(cfg *config.Config) (*Pools, error) {
	load, err := open(cfg, cfg.LoadPoolMaxConns, cfg.LoadPoolMaxIdle)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	save, err := open(cfg, cfg.SavePoolMaxConns, cfg.SavePoolMaxIdle)
	if err != nil {
		return nil, fmt.Errorf("save pool: %w", err)
	}
	misc, err := open(cfg, cfg.MiscPoolMaxConns, cfg.MiscPoolMaxIdle)
	if err != nil {
		return nil, fmt.Errorf("misc pool: %w", err)
	}

	slog.Info("database connected",
		"host", cfg.DBHost, "database", cfg.DBName,
		"load_conns", cfg.LoadPoolMaxConns,
		"save_conns", cfg.SavePoolMaxConns,
		"misc_conns", cfg.MiscPoolMaxConns)
	return &Pools{Load: load, Save: save, Misc: misc}, nil
}

func open(cfg *config.Config, maxConns, maxIdle int) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("validation ping failed: %w", err)
	}
	return db, nil
}

// Ping validates every pool with a round trip.
func (p *Pools) Ping() error {
	for name, db := range map[string]*gorm.DB{"load": p.Load, "save": p.Save, "misc": p.Misc} {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("%s pool: %w", name, err)
		}
		if err := sqlDB.Ping(); err != nil {
			return fmt.Errorf("%s pool: %w", name, err)
		}
	}
	return nil
}

// Close releases all three pools. Errors are logged, not returned, since
// this runs on shutdown.
func (p *Pools) Close() {
	for name, db := range map[string]*gorm.DB{"load": p.Load, "save": p.Save, "misc": p.Misc} {
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("pool close failed", "pool", name, "error", err)
		}
	}
}
