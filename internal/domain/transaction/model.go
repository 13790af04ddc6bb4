package transaction

import "time"

// Transaction types.
const (
	TypeRevenue = "revenue"
	TypeExpense = "expense"
)

// ContributionDescription marks a revenue line as a member's yearly contribution.
const ContributionDescription = "cotisation"

// Transaction is one cash-book line.
type Transaction struct {
	ID          int64      `json:"id" db:"id"`
	OccurredAt  time.Time  `json:"occurredAt" db:"occurred_at"`
	Type        string     `json:"type" db:"type"`
	Description string     `json:"description" db:"description"`
	Amount      int64      `json:"amount" db:"amount"`
	Sender      string     `json:"sender" db:"sender"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// Request captures POST and PUT payloads. OccurredAt defaults to now.
type Request struct {
	OccurredAt  *time.Time `json:"occurredAt"`
	Type        string     `json:"type" validate:"required,oneof=revenue expense"`
	Description string     `json:"description" validate:"required,max=255"`
	Amount      int64      `json:"amount" validate:"required,gt=0"`
	Sender      string     `json:"sender" validate:"required,max=255"`
}

// CashSummary is the running cash position.
type CashSummary struct {
	Balance int64 `json:"balance"`
	Revenue int64 `json:"revenue"`
	Expense int64 `json:"expense"`
}
