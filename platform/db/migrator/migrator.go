package migrator

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

type Migrator struct {
	db            *sql.DB
	migrationsDir string
}

func NewMigrator(db *sql.DB, migrationsDir string) *Migrator {
	return &Migrator{
		db:            db,
		migrationsDir: migrationsDir,
	}
}

func (m *Migrator) Up() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrator: set dialect: %w", err)
	}
	if err := goose.Up(m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("migrator: up %s: %w", m.migrationsDir, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
