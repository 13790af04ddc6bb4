package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kidpech/asso_api/internal/config"
)

// Manager coordinates read/write connections.
type Manager struct {
	Write   *sqlx.DB
	Read    *sqlx.DB
	Dialect string
}

// driverFor maps config driver names onto registered database/sql drivers.
// "postgres" uses the pgx stdlib driver which registers under "pgx".
func driverFor(name string) string {
	if name == "postgres" {
		return "pgx"
	}
	return name
}

// Connect establishes sqlx connections based on configuration.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	driverName := driverFor(cfg.Driver)

	write, err := open(driverName, cfg.DSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := write.PingContext(ctx); err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	mgr := &Manager{Write: write, Read: write, Dialect: cfg.Driver}
	if cfg.ReadOnlyDSN != "" {
		read, err := open(driverName, cfg.ReadOnlyDSN, cfg)
		if err != nil {
			if logger != nil {
				logger.Warn("read-only db open failed", zap.Error(err))
			}
		} else if err := read.PingContext(ctx); err != nil {
			if logger != nil {
				logger.Warn("read-only db ping failed", zap.Error(err))
			}
			_ = read.Close()
		} else {
			mgr.Read = read
		}
	}

	return mgr, nil
}

func open(driverName, dsn string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return conn, nil
}

// Close closes every pool, reporting all failures.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	if m.Write != nil {
		errs = append(errs, m.Write.Close())
	}
	if m.Read != nil && m.Read != m.Write {
		errs = append(errs, m.Read.Close())
	}
	return errors.Join(errs...)
}

// readPool picks the replica when one is configured.
func readPool(write, read *sqlx.DB) *sqlx.DB {
	if read == nil {
		return write
	}
	return read
}

// insertID runs an INSERT and returns the generated id. pgx does not
// implement LastInsertId, so postgres goes through RETURNING id.
func insertID(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (int64, error) {
	if db.DriverName() == "pgx" {
		var id int64
		err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isDuplicate matches unique violations of both mysql (1062) and postgres (23505).
func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "unique") || strings.Contains(s, "23505")
}
