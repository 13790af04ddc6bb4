package member

import "context"

// Repository defines persistence needs for members.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, filter Filter) ([]Member, int, error)
	Count(ctx context.Context) (int, error)
	// HasConflict reports whether another member (id != excludeID) already
	// uses cin or email.
	HasConflict(ctx context.Context, cin string, email *string, excludeID int64) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	SetTitle(ctx context.Context, id int64, title *string) error
	SetPhoto(ctx context.Context, id int64, photo string) error
}
