// Package gormdb is the GORM/Postgres implementation of the db ports.
package gormdb

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/sms-framework/internal/db"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool limits applied to connections opened by New.
const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

type GormDB struct {
	conn *gorm.DB
}

// New opens a Postgres connection pool. SQL logging is limited to warnings
// so queue scans do not flood the log.
func New(dsn string) (*GormDB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return &GormDB{conn: conn}, nil
}

// Wrap adapts an already opened connection, e.g. one backed by sqlmock.
func Wrap(conn *gorm.DB) *GormDB {
	return &GormDB{conn: conn}
}

// Conn returns the *gorm.DB repositories type-assert to.
func (g *GormDB) Conn() any {
	return g.conn
}

// Migrate creates or updates the tables for the given models.
func (g *GormDB) Migrate(models ...any) error {
	return g.conn.AutoMigrate(models...)
}

// Ping checks that the database answers.
func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func (g *GormDB) Close() error {
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ db.Migrator = (*GormDB)(nil)
