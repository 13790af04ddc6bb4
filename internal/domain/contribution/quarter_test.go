package contribution

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateFirstQuarterScenario(t *testing.T) {
	rows := []Row{
		{MemberID: 1, MemberName: "A", Month: 1, Paid: true},
		{MemberID: 1, MemberName: "A", Month: 2, Paid: false},
		{MemberID: 1, MemberName: "A", Month: 3, Paid: true},
		{MemberID: 2, MemberName: "B", Month: 1, Paid: false},
	}

	report := Aggregate(rows)

	require.Equal(t, []QuarterEntry{
		{MemberID: 1, MemberName: "A", Payments: map[string]bool{"janvier": true, "fevrier": false, "mars": true}},
		{MemberID: 2, MemberName: "B", Payments: map[string]bool{"janvier": false, "fevrier": false, "mars": false}},
	}, report.Q1)
	require.Empty(t, report.Q2)
	require.Empty(t, report.Q3)
	require.Empty(t, report.Q4)
}

func TestAggregateEmptyInput(t *testing.T) {
	report := Aggregate(nil)

	for _, q := range [][]QuarterEntry{report.Q1, report.Q2, report.Q3, report.Q4} {
		require.NotNil(t, q)
		require.Len(t, q, 0)
	}

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	require.JSONEq(t, `{"q1":[],"q2":[],"q3":[],"q4":[]}`, string(raw))
}

func TestAggregatePartialQuarterDefaultsMissingMonths(t *testing.T) {
	report := Aggregate([]Row{
		{MemberID: 7, MemberName: "Rija Rakoto", Month: 4, Paid: true},
		{MemberID: 7, MemberName: "Rija Rakoto", Month: 6, Paid: false},
	})

	require.Len(t, report.Q2, 1)
	require.Equal(t, map[string]bool{"avril": true, "mai": false, "juin": false}, report.Q2[0].Payments)
	require.Empty(t, report.Q1)
}

func TestAggregateInterleavedMembersAreNotSplit(t *testing.T) {
	rows := []Row{
		{MemberID: 3, MemberName: "C", Month: 10, Paid: true},
		{MemberID: 5, MemberName: "E", Month: 10, Paid: false},
		{MemberID: 3, MemberName: "C", Month: 11, Paid: true},
		{MemberID: 5, MemberName: "E", Month: 12, Paid: true},
		{MemberID: 3, MemberName: "C", Month: 12, Paid: false},
	}

	report := Aggregate(rows)

	require.Len(t, report.Q4, 2)
	require.Equal(t, int64(3), report.Q4[0].MemberID)
	require.Equal(t, map[string]bool{"octobre": true, "novembre": true, "decembre": false}, report.Q4[0].Payments)
	require.Equal(t, int64(5), report.Q4[1].MemberID)
	require.Equal(t, map[string]bool{"octobre": false, "novembre": false, "decembre": true}, report.Q4[1].Payments)
}

func TestAggregateMemberZeroIsOrdinaryKey(t *testing.T) {
	report := Aggregate([]Row{
		{MemberID: 0, MemberName: "Zero", Month: 7, Paid: true},
		{MemberID: 0, MemberName: "Zero", Month: 8, Paid: true},
	})

	require.Len(t, report.Q3, 1)
	require.Equal(t, map[string]bool{"juillet": true, "aout": true, "septembre": false}, report.Q3[0].Payments)
}

func TestAggregateEntryCountMatchesDistinctMembers(t *testing.T) {
	var rows []Row
	for member := int64(1); member <= 6; member++ {
		for month := 1; month <= 12; month++ {
			// members with an even id skip the second half of the year
			if member%2 == 0 && month > 6 {
				continue
			}
			rows = append(rows, Row{MemberID: member, MemberName: "m", Month: month, Paid: month%2 == 0})
		}
	}

	report := Aggregate(rows)

	require.Len(t, report.Q1, 6)
	require.Len(t, report.Q2, 6)
	require.Len(t, report.Q3, 3)
	require.Len(t, report.Q4, 3)
	for q, entries := range [][]QuarterEntry{report.Q1, report.Q2, report.Q3, report.Q4} {
		want := QuarterMonths(q + 1)
		for _, e := range entries {
			require.Len(t, e.Payments, 3)
			for _, m := range want {
				_, ok := e.Payments[m]
				require.True(t, ok, "quarter %d entry for %d misses %s", q+1, e.MemberID, m)
			}
		}
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	rows := []Row{
		{MemberID: 2, MemberName: "B", Month: 2, Paid: true},
		{MemberID: 1, MemberName: "A", Month: 9, Paid: true},
		{MemberID: 2, MemberName: "B", Month: 5, Paid: false},
	}

	require.Equal(t, Aggregate(rows), Aggregate(rows))
}

func TestAggregateSkipsInvalidMonths(t *testing.T) {
	report := Aggregate([]Row{
		{MemberID: 1, MemberName: "A", Month: 0, Paid: true},
		{MemberID: 1, MemberName: "A", Month: 13, Paid: true},
	})

	require.Empty(t, report.Q1)
	require.Empty(t, report.Q4)
}

func TestValidateRows(t *testing.T) {
	require.NoError(t, ValidateRows([]Row{{MemberID: 1, Month: 12}}))

	err := ValidateRows([]Row{{MemberID: 1, Month: 1}, {MemberID: 4, Month: 13}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidMonth))
	require.Contains(t, err.Error(), "member 4 month 13")
}

func TestMonthName(t *testing.T) {
	name, ok := MonthName(8)
	require.True(t, ok)
	require.Equal(t, "aout", name)

	_, ok = MonthName(0)
	require.False(t, ok)
	require.Nil(t, QuarterMonths(5))
	require.Equal(t, []string{"octobre", "novembre", "decembre"}, QuarterMonths(4))
}

func TestAggregateRepeatedMonthLastRowWins(t *testing.T) {
	report := Aggregate([]Row{
		{MemberID: 4, MemberName: "D", Month: 2, Paid: true},
		{MemberID: 4, MemberName: "D", Month: 2, Paid: false},
		{MemberID: 4, MemberName: "D", Month: 8, Paid: false},
		{MemberID: 4, MemberName: "D", Month: 8, Paid: true},
	})

	require.Len(t, report.Q1, 1)
	require.Equal(t, map[string]bool{"janvier": false, "fevrier": false, "mars": false}, report.Q1[0].Payments)
	require.Len(t, report.Q3, 1)
	require.Equal(t, map[string]bool{"juillet": false, "aout": true, "septembre": false}, report.Q3[0].Payments)
}

func TestAggregateOrderIsPerQuarterFirstAppearance(t *testing.T) {
	rows := []Row{
		{MemberID: 9, MemberName: "I", Month: 5, Paid: true},
		{MemberID: 2, MemberName: "B", Month: 1, Paid: true},
		{MemberID: 7, MemberName: "G", Month: 3, Paid: false},
		{MemberID: 2, MemberName: "B", Month: 4, Paid: false},
		{MemberID: 9, MemberName: "I", Month: 2, Paid: true},
		{MemberID: 7, MemberName: "G", Month: 6, Paid: true},
	}

	report := Aggregate(rows)

	ids := func(entries []QuarterEntry) []int64 {
		out := make([]int64, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.MemberID)
		}
		return out
	}
	require.Equal(t, []int64{2, 7, 9}, ids(report.Q1))
	require.Equal(t, []int64{9, 2, 7}, ids(report.Q2))
	require.Equal(t, "I", report.Q2[0].MemberName)
}

func TestAggregateKeepsFirstSeenName(t *testing.T) {
	report := Aggregate([]Row{
		{MemberID: 1, MemberName: "Old", Month: 1, Paid: true},
		{MemberID: 1, MemberName: "New", Month: 2, Paid: true},
	})

	require.Len(t, report.Q1, 1)
	require.Equal(t, "Old", report.Q1[0].MemberName)
}
