package transaction

import "context"

// Repository persists cash-book lines.
type Repository interface {
	List(ctx context.Context, description string) ([]Transaction, error)
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	Create(ctx context.Context, t *Transaction) error
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id int64) error
	// HasContribution reports whether sender already has a contribution line
	// other than excludeID.
	HasContribution(ctx context.Context, sender string, excludeID int64) (bool, error)
	SumByType(ctx context.Context, typ string) (int64, error)
}
