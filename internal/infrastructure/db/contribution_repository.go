package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/contribution"
)

// ContributionRepository persists monthly dues via sqlx. Report queries
// go to the read pool.
type ContributionRepository struct {
	db   *sqlx.DB
	read *sqlx.DB
}

// NewContributionRepository builds repo; read may be nil.
func NewContributionRepository(write, read *sqlx.DB) contribution.Repository {
	return &ContributionRepository{db: write, read: readPool(write, read)}
}

func (r *ContributionRepository) ListYearRows(ctx context.Context, year int) ([]contribution.Row, error) {
	query := r.read.Rebind(`SELECT c.member_id, c.month, c.paid, CONCAT(m.first_name, ' ', m.last_name) AS member_name
		FROM contributions c
		JOIN members m ON m.id = c.member_id
		WHERE c.year = ?
		ORDER BY c.member_id, c.month`)
	rows := []contribution.Row{}
	if err := r.read.SelectContext(ctx, &rows, query, year); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContributionRepository) ListByMember(ctx context.Context, memberID int64, year int) ([]contribution.Contribution, error) {
	query := r.read.Rebind(`SELECT * FROM contributions WHERE member_id = ? AND year = ? ORDER BY month`)
	out := []contribution.Contribution{}
	if err := r.read.SelectContext(ctx, &out, query, memberID, year); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ContributionRepository) GetByID(ctx context.Context, id int64) (*contribution.Contribution, error) {
	var c contribution.Contribution
	query := r.db.Rebind(`SELECT * FROM contributions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contribution.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContributionRepository) Exists(ctx context.Context, memberID int64, month, year int) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM contributions WHERE member_id = ? AND month = ? AND year = ?`)
	if err := r.db.GetContext(ctx, &count, query, memberID, month, year); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ContributionRepository) Create(ctx context.Context, c *contribution.Contribution) error {
	id, err := insertID(ctx, r.db, `INSERT INTO contributions (member_id, month, year, amount, paid, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.MemberID, c.Month, c.Year, c.Amount, c.Paid, c.PaidAt, c.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return contribution.ErrDuplicate
		}
		return err
	}
	c.ID = id
	return nil
}

func (r *ContributionRepository) SetPaid(ctx context.Context, memberID int64, month, year int, paid bool, paidAt *time.Time) error {
	exists, err := r.Exists(ctx, memberID, month, year)
	if err != nil {
		return err
	}
	if !exists {
		return contribution.ErrNotFound
	}
	query := r.db.Rebind(`UPDATE contributions SET paid = ?, paid_at = ? WHERE member_id = ? AND month = ? AND year = ?`)
	_, err = r.db.ExecContext(ctx, query, paid, paidAt, memberID, month, year)
	return err
}

func (r *ContributionRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM contributions WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return contribution.ErrNotFound
	}
	return nil
}

func (r *ContributionRepository) SeedYear(ctx context.Context, memberID int64, year int, amount int64) error {
	now := time.Now().UTC()
	values := make([]string, 0, 12)
	args := make([]interface{}, 0, 12*6)
	for month := 1; month <= 12; month++ {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, memberID, month, year, amount, false, now)
	}
	query := r.db.Rebind(`INSERT INTO contributions (member_id, month, year, amount, paid, created_at) VALUES ` +
		strings.Join(values, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil && isDuplicate(err) {
		return contribution.ErrDuplicate
	}
	return err
}

// SeedMissing inserts every absent (member, month) pair of year in a single
// statement and reports how many rows were created. Year and amount are
// inlined as integers so postgres does not have to infer select-list types.
func (r *ContributionRepository) SeedMissing(ctx context.Context, year int, amount int64) (int64, error) {
	months := make([]string, 12)
	for i := range months {
		months[i] = "SELECT " + strconv.Itoa(i+1) + " AS month"
	}
	query := r.db.Rebind(`INSERT INTO contributions (member_id, month, year, amount, paid, created_at)
		SELECT m.id, mo.month, ` + strconv.Itoa(year) + `, ` + strconv.FormatInt(amount, 10) + `, FALSE, CURRENT_TIMESTAMP
		FROM members m
		CROSS JOIN (` + strings.Join(months, " UNION ALL ") + `) mo
		WHERE NOT EXISTS (
			SELECT 1 FROM contributions c WHERE c.member_id = m.id AND c.year = ? AND c.month = mo.month
		)`)
	res, err := r.db.ExecContext(ctx, query, year)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
