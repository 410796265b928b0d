package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnNames = []string{
	"id", "first_name", "last_name", "display_name", "email", "document", "phone", "city", "state",
	"password", "salt", "profile_image_urls", "provider", "provider_data", "additional_providers_data",
	"roles", "addresses", "reset_password_token", "reset_password_expires", "updated", "created",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRow(id, email string, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columnNames).AddRow(
		id, "Ada", "Lovelace", "Ada Lovelace", email, "", "11987654321", "Campinas", "SP",
		"digest", "salt", []byte(`{"original":"/o.png","x100":"/a.png","x256":"/b.png"}`), "local",
		[]byte(`{}`), []byte(`{"google":{"id":"g-1"}}`), []byte(`["user"]`),
		[]byte(`[{"_id":"addr-1","name":"Home"}]`), "", nil, nil, created,
	)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*first_name.*VALUES\s*\(\$1,.*\$21\)$`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Email: "ada@example.org", Provider: models.ProviderLocal, Roles: []string{"user"}}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	assert.Len(t, u.ID, 24)
	assert.False(t, u.Created.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Email: "ada@example.org"})

	var dup *common.DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "email", dup.Field)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+first_name\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1\s+AND\s+deleted\s+IS\s+NULL$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.User{ID: "missing"})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.User{ID: "u-1", FirstName: "Ada"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+AND\s+deleted\s+IS\s+NULL$`).
		WithArgs("ada@example.org").
		WillReturnRows(userRow("u-1", "ada@example.org", created))

	got, err := repo.GetByEmail(context.Background(), "  ADA@example.org ")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}

	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, []string{"user"}, got.Roles)
	assert.Equal(t, "/b.png", got.ProfileImageURLs.X256)
	assert.Equal(t, "g-1", got.AdditionalProvidersData["google"]["id"])
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "Home", got.Addresses[0].Name)
	assert.Nil(t, got.Updated)
	assert.Equal(t, created, got.Created)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByProvider(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)provider\s*=\s*\$1\s+AND\s+provider_data->>'id'\s*=\s*\$2\)\s+OR\s+additional_providers_data->\$1->>'id'\s*=\s*\$2`).
		WithArgs("google", "g-1").
		WillReturnRows(userRow("u-1", "ada@example.org", time.Now()))

	got, err := repo.GetByProvider(context.Background(), "google", "g-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
}

func TestList_WithRoleFilter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := userRow("u-1", "a@example.org", time.Now())
	rows.AddRow("u-2", "Bo", "B", "Bo B", "b@example.org", "", "", "", "", "", "", []byte(`{}`), "google",
		[]byte(`{"id":"g"}`), []byte(`{}`), []byte(`["user"]`), []byte(`[]`), "", nil, nil, time.Now())

	mock.ExpectQuery(`(?s)WHERE\s+deleted\s+IS\s+NULL\s+AND\s+roles\s+@>\s+jsonb_build_array\(\$1::text\)\s+ORDER\s+BY\s+created\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
		WithArgs("user", 10, 20).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), Filter{Role: "user"}, 20, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-2", got[1].ID)
	assert.Equal(t, "g", got[1].ProviderData["id"])
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+deleted\s+IS\s+NULL\s+AND\s+email\s*=\s*\$1$`).
		WithArgs("a@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	n, err := repo.Count(context.Background(), Filter{Email: "A@example.org"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSoftDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+deleted\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+deleted`).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SoftDelete(context.Background(), "u-1", at))
	assert.ErrorIs(t, repo.SoftDelete(context.Background(), "u-1", at), common.ErrorNotFound)
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+users`).WithArgs("u-1").WillReturnError(errors.New("db err"))

	err := repo.Delete(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
