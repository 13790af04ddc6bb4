package contribution

import "time"

// Contribution is one member's dues line for a given month of a year.
type Contribution struct {
	ID        int64      `json:"id" db:"id"`
	MemberID  int64      `json:"memberId" db:"member_id"`
	Month     int        `json:"month" db:"month"`
	Year      int        `json:"year" db:"year"`
	Amount    int64      `json:"amount" db:"amount"`
	Paid      bool       `json:"paid" db:"paid"`
	PaidAt    *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Row is the flat join of a contribution with its member's display name,
// as consumed by Aggregate.
type Row struct {
	MemberID   int64  `db:"member_id"`
	Month      int    `db:"month"`
	Paid       bool   `db:"paid"`
	MemberName string `db:"member_name"`
}

// CreateRequest captures POST /contributions payloads.
type CreateRequest struct {
	MemberID int64      `json:"memberId" validate:"required,gt=0"`
	Month    int        `json:"month" validate:"required,min=1,max=12"`
	Year     int        `json:"year" validate:"required,min=2000,max=2100"`
	Amount   int64      `json:"amount" validate:"gte=0"`
	PaidAt   *time.Time `json:"paidAt"`
}

// PaymentRequest flips the paid flag of a member's month.
// Year defaults to the current year when omitted.
type PaymentRequest struct {
	MemberID int64 `json:"memberId" validate:"required,gt=0"`
	Month    int   `json:"month" validate:"required,min=1,max=12"`
	Year     int   `json:"year" validate:"omitempty,min=2000,max=2100"`
	Paid     *bool `json:"paid" validate:"required"`
}
