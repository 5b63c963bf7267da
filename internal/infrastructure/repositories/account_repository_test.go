package repositories_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/db"
	impl "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/repositories"
)

var accountCols = []string{"id", "name", "email", "password_hash", "role", "verified", "created_at", "updated_at"}

func newAccountRepo(t *testing.T) (*impl.AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return impl.NewAccountRepository(db.Wrap(sqlx.NewDb(sqlDB, "postgres")), nil), mock
}

func accountRow(a *account.Account) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).AddRow(
		a.ID.String(), a.Name, a.Email, a.PasswordHash, a.Role, a.Verified, a.CreatedAt, a.UpdatedAt)
}

func sampleAccount(t *testing.T) *account.Account {
	t.Helper()
	a, err := account.New("Alice", "alice@example.com", "hash", "")
	require.NoError(t, err)
	return a
}

func TestAccountRepository_Create(t *testing.T) {
	repo, mock := newAccountRepo(t)
	a := sampleAccount(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), a))
}

func TestAccountRepository_CreateDuplicateEmail(t *testing.T) {
	repo, mock := newAccountRepo(t)
	a := sampleAccount(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), a)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestAccountRepository_CreateFailure(t *testing.T) {
	repo, mock := newAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), sampleAccount(t))
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestAccountRepository_CreateRejectsIncomplete(t *testing.T) {
	repo, _ := newAccountRepo(t)
	a := sampleAccount(t)
	a.PasswordHash = ""

	err := repo.Create(context.Background(), a)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}

func TestAccountRepository_FindByID(t *testing.T) {
	repo, mock := newAccountRepo(t)
	a := sampleAccount(t)

	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \$1`).
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestAccountRepository_FindByEmailMissing(t *testing.T) {
	repo, mock := newAccountRepo(t)

	mock.ExpectQuery(`SELECT .* FROM accounts WHERE email = \$1`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(accountCols))

	got, err := repo.FindByEmail(context.Background(), "  Bob@Example.com ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccountRepository_FindAll(t *testing.T) {
	repo, mock := newAccountRepo(t)
	a := sampleAccount(t)
	b, err := account.New("Bob", "bob@example.com", "hash", "admin")
	require.NoError(t, err)

	rows := accountRow(a).AddRow(b.ID.String(), b.Name, b.Email, b.PasswordHash, b.Role, b.Verified, b.CreatedAt, b.UpdatedAt)
	mock.ExpectQuery(`SELECT .* FROM accounts ORDER BY created_at`).WillReturnRows(rows)

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "admin", all[1].Role)
}

func TestAccountRepository_FindAllEmpty(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectQuery(`SELECT .* FROM accounts`).WillReturnRows(sqlmock.NewRows(accountCols))

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestAccountRepository_UpdateSelectedFields(t *testing.T) {
	repo, mock := newAccountRepo(t)
	a := sampleAccount(t)
	verified := true
	a.Verified = verified

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts SET verified = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(true, sqlmock.AnyArg(), a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.Update(context.Background(), a.ID, account.UpdateFields{Verified: &verified})
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestAccountRepository_UpdateNotFound(t *testing.T) {
	repo, mock := newAccountRepo(t)
	id := uuid.New()
	name := "Zed"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts SET name = $1")).
		WillReturnRows(sqlmock.NewRows(accountCols))

	_, err := repo.Update(context.Background(), id, account.UpdateFields{Name: &name})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAccountRepository_UpdateEmpty(t *testing.T) {
	repo, _ := newAccountRepo(t)

	_, err := repo.Update(context.Background(), uuid.New(), account.UpdateFields{})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}

func TestAccountRepository_Delete(t *testing.T) {
	repo, mock := newAccountRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), id)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

