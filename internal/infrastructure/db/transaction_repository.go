package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/transaction"
)

// TransactionRepository persists cash-book lines. Listing and totals use
// the read pool.
type TransactionRepository struct {
	db   *sqlx.DB
	read *sqlx.DB
}

// NewTransactionRepository builds repo; read may be nil.
func NewTransactionRepository(write, read *sqlx.DB) transaction.Repository {
	return &TransactionRepository{db: write, read: readPool(write, read)}
}

func (r *TransactionRepository) List(ctx context.Context, description string) ([]transaction.Transaction, error) {
	query := `SELECT * FROM transactions`
	args := []interface{}{}
	if description != "" {
		query += ` WHERE LOWER(description) = LOWER(?)`
		args = append(args, description)
	}
	query += ` ORDER BY occurred_at DESC, id DESC`
	out := []transaction.Transaction{}
	if err := r.read.SelectContext(ctx, &out, r.read.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	var t transaction.Transaction
	if err := r.db.GetContext(ctx, &t, r.db.Rebind(`SELECT * FROM transactions WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	id, err := insertID(ctx, r.db, `INSERT INTO transactions (occurred_at, type, description, amount, sender)
		VALUES (?, ?, ?, ?, ?)`, t.OccurredAt, t.Type, t.Description, t.Amount, t.Sender)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	query := `UPDATE transactions SET occurred_at = :occurred_at, type = :type, description = :description,
		amount = :amount, sender = :sender, updated_at = :updated_at WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM transactions WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) HasContribution(ctx context.Context, sender string, excludeID int64) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM transactions WHERE LOWER(description) = ? AND sender = ? AND id <> ?`)
	if err := r.db.GetContext(ctx, &count, query, transaction.ContributionDescription, sender, excludeID); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TransactionRepository) SumByType(ctx context.Context, typ string) (int64, error) {
	var total sql.NullInt64
	query := r.read.Rebind(`SELECT SUM(amount) FROM transactions WHERE type = ?`)
	if err := r.read.GetContext(ctx, &total, query, typ); err != nil {
		return 0, err
	}
	return total.Int64, nil
}
