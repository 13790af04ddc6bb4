package contribution

import (
	"context"
	"time"
)

// Repository defines persistence needs for contributions.
type Repository interface {
	ListYearRows(ctx context.Context, year int) ([]Row, error)
	ListByMember(ctx context.Context, memberID int64, year int) ([]Contribution, error)
	GetByID(ctx context.Context, id int64) (*Contribution, error)
	Exists(ctx context.Context, memberID int64, month, year int) (bool, error)
	Create(ctx context.Context, c *Contribution) error
	SetPaid(ctx context.Context, memberID int64, month, year int, paid bool, paidAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	SeedYear(ctx context.Context, memberID int64, year int, amount int64) error
	SeedMissing(ctx context.Context, year int, amount int64) (int64, error)
}
