package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/setting"
)

// SettingRepository stores key/value settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository builds repo.
func NewSettingRepository(db *sqlx.DB) setting.Repository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, r.db.Rebind(`SELECT value FROM settings WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *SettingRepository) Set(ctx context.Context, name, value string, at time.Time) error {
	query := `INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`
	if r.db.DriverName() == "pgx" {
		query = `INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), name, value, at)
	return err
}
