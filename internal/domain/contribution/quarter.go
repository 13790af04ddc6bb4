package contribution

import (
	"errors"
	"fmt"
)

// ErrInvalidMonth flags a row whose month is outside 1..12.
var ErrInvalidMonth = errors.New("invalid contribution month")

var monthNames = [12]string{
	"janvier", "fevrier", "mars",
	"avril", "mai", "juin",
	"juillet", "aout", "septembre",
	"octobre", "novembre", "decembre",
}

// QuarterEntry summarises one member's payments over a quarter.
type QuarterEntry struct {
	MemberID   int64           `json:"memberId"`
	MemberName string          `json:"memberName"`
	Payments   map[string]bool `json:"payments"`
}

// QuarterlyReport groups a year's payments by quarter.
type QuarterlyReport struct {
	Q1 []QuarterEntry `json:"q1"`
	Q2 []QuarterEntry `json:"q2"`
	Q3 []QuarterEntry `json:"q3"`
	Q4 []QuarterEntry `json:"q4"`
}

// MonthName returns the report key for a month number.
func MonthName(month int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	return monthNames[month-1], true
}

// QuarterMonths returns the three month keys of quarter q (1..4).
func QuarterMonths(q int) []string {
	if q < 1 || q > 4 {
		return nil
	}
	start := (q - 1) * 3
	return []string{monthNames[start], monthNames[start+1], monthNames[start+2]}
}

// ValidateRows rejects rows Aggregate cannot place in a quarter.
func ValidateRows(rows []Row) error {
	for _, row := range rows {
		if _, ok := MonthName(row.Month); !ok {
			return fmt.Errorf("member %d month %d: %w", row.MemberID, row.Month, ErrInvalidMonth)
		}
	}
	return nil
}

// Aggregate reshapes a year of contribution rows into four quarters.
// Rows need not be grouped or sorted; each quarter lists members in the order
// they first appear in that quarter's rows. Months without a row stay false.
// Rows with a month outside 1..12 are ignored.
func Aggregate(rows []Row) QuarterlyReport {
	var quarters [4]*quarterBuilder
	for i := range quarters {
		quarters[i] = newQuarterBuilder(i + 1)
	}
	for _, row := range rows {
		name, ok := MonthName(row.Month)
		if !ok {
			continue
		}
		quarters[(row.Month-1)/3].add(row, name)
	}
	return QuarterlyReport{
		Q1: quarters[0].entries,
		Q2: quarters[1].entries,
		Q3: quarters[2].entries,
		Q4: quarters[3].entries,
	}
}

type quarterBuilder struct {
	months  []string
	index   map[int64]int
	entries []QuarterEntry
}

func newQuarterBuilder(q int) *quarterBuilder {
	return &quarterBuilder{
		months:  QuarterMonths(q),
		index:   make(map[int64]int),
		entries: make([]QuarterEntry, 0),
	}
}

func (b *quarterBuilder) add(row Row, month string) {
	pos, ok := b.index[row.MemberID]
	if !ok {
		payments := make(map[string]bool, len(b.months))
		for _, m := range b.months {
			payments[m] = false
		}
		b.entries = append(b.entries, QuarterEntry{
			MemberID:   row.MemberID,
			MemberName: row.MemberName,
			Payments:   payments,
		})
		pos = len(b.entries) - 1
		b.index[row.MemberID] = pos
	}
	b.entries[pos].Payments[month] = row.Paid
}
