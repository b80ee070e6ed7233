// Package db holds the storage ports repositories are written against.
package db

// DB exposes the driver-specific connection to repositories.
type DB interface {
	Conn() any
}

// Migrator is a DB that can bring the schema up to date for a set of
// models.
type Migrator interface {
	DB
	Migrate(models ...any) error
}
