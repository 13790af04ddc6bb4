package member

import "time"

// Member models an association member.
type Member struct {
	ID           int64      `json:"id" db:"id"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	CIN          string     `json:"cin" db:"cin"`
	Phone        string     `json:"phone" db:"phone"`
	Email        *string    `json:"email,omitempty" db:"email"`
	BirthDate    *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	FacebookName *string    `json:"facebookName,omitempty" db:"facebook_name"`
	Profession   *string    `json:"profession,omitempty" db:"profession"`
	Height       *int       `json:"height,omitempty" db:"height"`
	Title        *string    `json:"title,omitempty" db:"title"`
	Photo        *string    `json:"photo,omitempty" db:"photo"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName is the display name used across reports.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Request captures POST and PUT payloads.
type Request struct {
	FirstName    string  `json:"firstName" validate:"required,max=100"`
	LastName     string  `json:"lastName" validate:"required,max=100"`
	CIN          string  `json:"cin" validate:"required,max=32"`
	Phone        string  `json:"phone" validate:"required,max=32"`
	Email        *string `json:"email" validate:"omitempty,email"`
	BirthDate    *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	FacebookName *string `json:"facebookName" validate:"omitempty,max=255"`
	Profession   *string `json:"profession" validate:"omitempty,max=255"`
	Height       *int    `json:"height" validate:"omitempty,min=50,max=260"`
}

// TitleRequest assigns a bureau title (president, treasurer, ...).
type TitleRequest struct {
	Title string `json:"title" validate:"max=100"`
}

// Filter for list endpoints.
type Filter struct {
	Search string
	Limit  int
	Offset int
}
