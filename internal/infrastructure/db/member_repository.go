package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kidpech/asso_api/internal/domain/member"
)

// MemberRepository persists members via sqlx. Listing and counting use the
// read pool; lookups that precede a write stay on the primary.
type MemberRepository struct {
	db   *sqlx.DB
	read *sqlx.DB
}

// NewMemberRepository builds repo; read may be nil.
func NewMemberRepository(write, read *sqlx.DB) member.Repository {
	return &MemberRepository{db: write, read: readPool(write, read)}
}

func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	id, err := insertID(ctx, r.db, `INSERT INTO members (first_name, last_name, cin, phone, email, birth_date, facebook_name,
		profession, height, title, photo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FirstName, m.LastName, m.CIN, m.Phone, m.Email, m.BirthDate, m.FacebookName,
		m.Profession, m.Height, m.Title, m.Photo, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return member.ErrDuplicate
		}
		return err
	}
	m.ID = id
	return nil
}

func (r *MemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `UPDATE members SET first_name = :first_name, last_name = :last_name, cin = :cin, phone = :phone,
		email = :email, birth_date = :birth_date, facebook_name = :facebook_name, profession = :profession,
		height = :height, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		if isDuplicate(err) {
			return member.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM members WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return member.ErrNotFound
	}
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	var m member.Member
	query := r.db.Rebind(`SELECT * FROM members WHERE id = ?`)
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) List(ctx context.Context, filter member.Filter) ([]member.Member, int, error) {
	base := `FROM members WHERE 1 = 1`
	args := []interface{}{}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base += ` AND (LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR cin LIKE ? OR phone LIKE ?)`
		args = append(args, like, like, like, like)
	}
	query := r.read.Rebind("SELECT * " + base + " ORDER BY last_name, first_name, id LIMIT ? OFFSET ?")
	queryArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)
	members := []member.Member{}
	if err := r.read.SelectContext(ctx, &members, query, queryArgs...); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.read.GetContext(ctx, &total, r.read.Rebind("SELECT COUNT(*) "+base), args...); err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.read.GetContext(ctx, &total, `SELECT COUNT(*) FROM members`); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *MemberRepository) HasConflict(ctx context.Context, cin string, email *string, excludeID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM members WHERE id <> ? AND (cin = ?`
	args := []interface{}{excludeID, cin}
	if email != nil && *email != "" {
		query += ` OR LOWER(email) = LOWER(?)`
		args = append(args, *email)
	}
	query += `)`
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MemberRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM members WHERE phone = ?`)
	if err := r.db.GetContext(ctx, &count, query, phone); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MemberRepository) SetTitle(ctx context.Context, id int64, title *string) error {
	return r.setColumn(ctx, id, "title", title)
}

func (r *MemberRepository) SetPhoto(ctx context.Context, id int64, photo string) error {
	return r.setColumn(ctx, id, "photo", photo)
}

// setColumn updates a single whitelisted column. Existence is checked first
// because mysql reports zero affected rows when the value is unchanged.
func (r *MemberRepository) setColumn(ctx context.Context, id int64, column string, value interface{}) error {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM members WHERE id = ?`), id); err != nil {
		return err
	}
	if count == 0 {
		return member.ErrNotFound
	}
	query := r.db.Rebind(`UPDATE members SET ` + column + ` = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, value, id)
	return err
}
