package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/user"
)

const userColumns = `id, username, password_hash, phone, role, last_login_at, created_at, updated_at`

// UserRepository stores application accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repo.
func NewUserRepository(db *sqlx.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :username, :password_hash, :phone, :role, :last_login_at, :created_at, :updated_at)`, u)
	if err != nil && isDuplicate(err) {
		return user.ErrDuplicateUsername
	}
	return err
}

// Update rewrites the mutable columns; username and id never change.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, phone = ?, role = ?, last_login_at = ?, updated_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, u.PasswordHash, u.Phone, u.Role, u.LastLoginAt, u.UpdatedAt, u.ID)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE username = ?`), username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.one(ctx, "username", username)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.one(ctx, "id", id)
}

func (r *UserRepository) List(ctx context.Context, filter user.UserFilter) ([]user.User, int, error) {
	where, args := "", []interface{}{}
	if filter.Search != "" {
		where = " WHERE LOWER(username) LIKE LOWER(?)"
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM users`+where), args...); err != nil {
		return nil, 0, err
	}
	users := []user.User{}
	if total == 0 {
		return users, 0, nil
	}
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY username LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &users, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// one loads a single account by a trusted column name.
func (r *UserRepository) one(ctx context.Context, column string, value interface{}) (*user.User, error) {
	var u user.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	if err := r.db.GetContext(ctx, &u, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
