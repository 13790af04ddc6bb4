package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/loginlog"
)

// LoginLogRepository persists login attempts.
type LoginLogRepository struct {
	db *sqlx.DB
}

// NewLoginLogRepository builds repo.
func NewLoginLogRepository(db *sqlx.DB) loginlog.Repository {
	return &LoginLogRepository{db: db}
}

func (r *LoginLogRepository) Create(ctx context.Context, e *loginlog.Entry) error {
	id, err := insertID(ctx, r.db, `INSERT INTO login_logs (username, logged_at, success) VALUES (?, ?, ?)`,
		e.Username, e.LoggedAt, e.Success)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *LoginLogRepository) List(ctx context.Context, limit, offset int) ([]loginlog.Entry, int, error) {
	entries := []loginlog.Entry{}
	query := r.db.Rebind(`SELECT * FROM login_logs ORDER BY logged_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &entries, query, limit, offset); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM login_logs`); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
