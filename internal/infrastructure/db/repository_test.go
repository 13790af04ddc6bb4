package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kidpech/asso_api/internal/domain/contribution"
	"github.com/kidpech/asso_api/internal/domain/member"
	"github.com/kidpech/asso_api/internal/domain/transaction"
	"github.com/kidpech/asso_api/internal/domain/user"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "mysql"), mock
}

func TestContributionListYearRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)

	rows := sqlmock.NewRows([]string{"member_id", "month", "paid", "member_name"}).
		AddRow(1, 1, true, "Amine Alaoui").
		AddRow(1, 2, false, "Amine Alaoui").
		AddRow(2, 1, true, "Sara Bennani")
	mock.ExpectQuery(regexp.QuoteMeta("FROM contributions c")).WithArgs(2025).WillReturnRows(rows)

	got, err := repo.ListYearRows(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, contribution.Row{MemberID: 2, Month: 1, Paid: true, MemberName: "Sara Bennani"}, got[2])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionSetPaidMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contributions")).
		WithArgs(int64(9), 3, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := repo.SetPaid(context.Background(), 9, 3, 2025, true, nil)
	require.ErrorIs(t, err, contribution.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionSetPaidUnchangedRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contributions")).
		WithArgs(int64(1), 3, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contributions SET paid = ?")).
		WithArgs(true, now, int64(1), 3, 2025).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetPaid(context.Background(), 1, 3, 2025, true, &now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionSeedMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)

	mock.ExpectExec(`INSERT INTO contributions .* SELECT m.id, mo.month, 2026, 5000, FALSE`).
		WithArgs(2026).
		WillReturnResult(sqlmock.NewResult(0, 24))

	created, err := repo.SeedMissing(context.Background(), 2026, 5000)
	require.NoError(t, err)
	require.Equal(t, int64(24), created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contributions")).
		WillReturnError(&mysqlDuplicate{})

	err := repo.Create(context.Background(), &contribution.Contribution{MemberID: 1, Month: 1, Year: 2025})
	require.ErrorIs(t, err, contribution.ErrDuplicate)
}

func TestMemberCreateAssignsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO members")).WillReturnResult(sqlmock.NewResult(42, 1))

	m := &member.Member{FirstName: "Amine", LastName: "Alaoui", CIN: "AB1", Phone: "0600"}
	require.NoError(t, repo.Create(context.Background(), m))
	require.Equal(t, int64(42), m.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM members WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7)
	require.ErrorIs(t, err, member.ErrNotFound)
}

func TestMemberHasConflictWithEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberRepository(db, nil)
	email := "a@b.ma"

	mock.ExpectQuery(regexp.QuoteMeta("OR LOWER(email) = LOWER(?))")).
		WithArgs(int64(3), "AB1", email).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	conflict, err := repo.HasConflict(context.Background(), "AB1", &email, 3)
	require.NoError(t, err)
	require.True(t, conflict)
}

func TestMemberSetTitleMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM members WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	title := "president"
	require.ErrorIs(t, repo.SetTitle(context.Background(), 5, &title), member.ErrNotFound)
}

func TestTransactionSumEmptyTable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT SUM(amount) FROM transactions WHERE type = ?")).
		WithArgs(transaction.TypeExpense).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

	total, err := repo.SumByType(context.Background(), transaction.TypeExpense)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestTransactionDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), 4), transaction.ErrNotFound)
}

func TestSettingGetMissingAndUpsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingRepository(db)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings")).
		WithArgs("dues_amount").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs("dues_amount", "6000", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, ok, err := repo.Get(context.Background(), "dues_amount")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, repo.Set(context.Background(), "dues_amount", "6000", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicate(t *testing.T) {
	require.True(t, isDuplicate(&mysqlDuplicate{}))
	require.True(t, isDuplicate(errString(`ERROR: duplicate key value violates unique constraint "members_cin_key" (SQLSTATE 23505)`)))
	require.False(t, isDuplicate(errString("connection refused")))
}

type mysqlDuplicate struct{}

func (*mysqlDuplicate) Error() string {
	return "Error 1062 (23000): Duplicate entry '1-2025-1' for key 'uq_contributions_member_period'"
}

type errString string

func (e errString) Error() string { return string(e) }

func TestContributionListByMember(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContributionRepository(db, nil)
	created := time.Date(2026, time.January, 1, 0, 5, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "member_id", "month", "year", "amount", "paid", "paid_at", "created_at"}).
		AddRow(10, 4, 1, 2026, 5000, true, created, created).
		AddRow(11, 4, 2, 2026, 5000, false, nil, created)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE member_id = ? AND year = ? ORDER BY month")).
		WithArgs(int64(4), 2026).WillReturnRows(rows)

	got, err := repo.ListByMember(context.Background(), 4, 2026)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].PaidAt)
	require.Nil(t, got[1].PaidAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsernameNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = ?")).
		WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, user.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListSkipsPageWhenEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE LOWER(username) LIKE LOWER(?)")).
		WithArgs("%tre%").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	users, total, err := repo.List(context.Background(), user.UserFilter{Search: "tre", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 0, total)
	require.NotNil(t, users)
	require.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE username = ?")).
		WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "ghost"), user.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadQueriesUseReplica(t *testing.T) {
	primary, primaryMock := newMock(t)
	replica, replicaMock := newMock(t)

	replicaMock.ExpectQuery(regexp.QuoteMeta("FROM contributions c")).WithArgs(2026).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "month", "paid", "member_name"}))
	replicaMock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM members")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	replicaMock.ExpectQuery(regexp.QuoteMeta("SELECT SUM(amount) FROM transactions")).WithArgs(transaction.TypeRevenue).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(15000))
	primaryMock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM members WHERE id = ?")).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx := context.Background()
	_, err := NewContributionRepository(primary, replica).ListYearRows(ctx, 2026)
	require.NoError(t, err)

	members := NewMemberRepository(primary, replica)
	total, err := members.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	_, err = members.GetByID(ctx, 1)
	require.ErrorIs(t, err, member.ErrNotFound)

	revenue, err := NewTransactionRepository(primary, replica).SumByType(ctx, transaction.TypeRevenue)
	require.NoError(t, err)
	require.Equal(t, int64(15000), revenue)

	require.NoError(t, replicaMock.ExpectationsWereMet())
	require.NoError(t, primaryMock.ExpectationsWereMet())
}

func TestManagerCloseClosesBothPools(t *testing.T) {
	write, writeMock := newMock(t)
	read, readMock := newMock(t)
	writeMock.ExpectClose().WillReturnError(errors.New("write pool stuck"))
	readMock.ExpectClose()

	err := (&Manager{Write: write, Read: read}).Close()

	require.ErrorContains(t, err, "write pool stuck")
	require.NoError(t, readMock.ExpectationsWereMet())
}
