package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations for the manager's dialect.
func Migrate(m *Manager, logger *zap.Logger) error {
	if m == nil || m.Write == nil {
		return errors.New("migrate: no database")
	}

	var (
		driver database.Driver
		err    error
	)
	switch m.Dialect {
	case "mysql":
		driver, err = mysql.WithInstance(m.Write.DB, &mysql.Config{})
	case "postgres":
		driver, err = pgxmigrate.WithInstance(m.Write.DB, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("migrate: unsupported dialect %s", m.Dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", m.Dialect, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+m.Dialect)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, m.Dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	// mig is left open: closing it would also close the shared pool.
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		version, dirty, _ := mig.Version()
		logger.Info("schema migrated", zap.String("dialect", m.Dialect), zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
