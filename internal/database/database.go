// Package database opens the Postgres store behind tenants, tool audit and
// wizard sessions.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/xelth-com/wooassist/internal/config"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	embeddedDir      = "./data/postgres"
	embeddedPort     = 5433
	embeddedPassword = "postgres"
)

// DB is the assistant's gorm handle. When it was started in embedded mode
// it also owns the Postgres process.
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	log      *logger.Logger
}

// Wrap adopts an already-open gorm connection (sqlite in tests)
func Wrap(db *gorm.DB, log *logger.Logger) *DB {
	if log == nil {
		log = logger.Nop()
	}
	return &DB{DB: db, log: log}
}

// embeddedMode is chosen for a localhost database without a password, so
// a development checkout runs without installing Postgres.
func embeddedMode(cfg config.DatabaseConfig) bool {
	return cfg.Host == "localhost" && cfg.Password == ""
}

// Connect opens the configured Postgres, starting an embedded server first
// when embeddedMode applies.
func Connect(cfg config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres
	if embeddedMode(cfg) {
		var err error
		if embedded, err = startEmbedded(cfg, log); err != nil {
			return nil, err
		}
		cfg.Port = strconv.Itoa(embeddedPort)
		cfg.Password = embeddedPassword
	} else {
		log.Info("connecting to postgres", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)
	}

	level := gormlogger.Warn
	if cfg.Silent {
		level = gormlogger.Silent
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// one row read and one write per chat message; a small pool is plenty
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetMaxOpenConns(16)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	log.Info("database connection established", "embedded", embedded != nil)
	return &DB{DB: gdb, embedded: embedded, log: log}, nil
}

func startEmbedded(cfg config.DatabaseConfig, log *logger.Logger) (*embeddedpostgres.EmbeddedPostgres, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(embeddedPort))
	if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		conn.Close()
		return nil, fmt.Errorf("embedded postgres: port %d is already in use", embeddedPort)
	}

	// nothing listens, so a pid file left by a crash is stale
	pidFile := filepath.Join(embeddedDir, "postmaster.pid")
	if err := os.Remove(pidFile); err == nil {
		log.Warn("removed stale postmaster.pid", "path", pidFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("embedded postgres: %w", err)
	}

	log.Info("starting embedded postgres", "dir", embeddedDir, "port", embeddedPort)
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(embeddedDir).
		Port(uint32(embeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))
	if err := pg.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}
	return pg, nil
}

// Migrate creates or updates the assistant's tables
func (db *DB) Migrate() error {
	if err := db.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Ping reports whether the database answers
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool and stops the embedded server, if any
func (db *DB) Close() error {
	var errs []error
	if sqlDB, err := db.DB.DB(); err != nil {
		errs = append(errs, err)
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, err)
	}
	if db.embedded != nil {
		db.log.Info("stopping embedded postgres")
		if err := db.embedded.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop embedded postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
