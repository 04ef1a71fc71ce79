package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"contacts-service/internal/model"
	repo "contacts-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func contactColumns() []string {
	return []string{"id", "user_id", "first_name", "last_name", "email", "phone_number", "birth_date", "additional_info", "created_at", "updated_at"}
}

func TestPostgresContactRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := repo.NewPostgresContactRepository(sqlxDB)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birth_date, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`)).
		WithArgs(int64(1), "John", "Doe", "john@x.com", "123456789", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := r.Create(context.Background(), &model.Contact{
		UserID:      1,
		FirstName:   "John",
		LastName:    "Doe",
		Email:       "john@x.com",
		PhoneNumber: "123456789",
		BirthDate:   time.Date(1990, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContactRepository_FindByID_WrongOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := repo.NewPostgresContactRepository(sqlxDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at
		FROM contacts WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(3), int64(99)).WillReturnError(sql.ErrNoRows)

	c, err := r.FindByID(context.Background(), 99, 3)
	require.NoError(t, err)
	require.Nil(t, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContactRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := repo.NewPostgresContactRepository(sqlxDB)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(3), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(3), int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := r.Delete(context.Background(), 1, 3)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = r.Delete(context.Background(), 1, 3)
	require.NoError(t, err)
	require.False(t, deleted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContactRepository_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := repo.NewPostgresContactRepository(sqlxDB)

	now := time.Now()
	rows := sqlmock.NewRows(contactColumns()).
		AddRow(int64(1), int64(1), "John", "Doe", "john@x.com", "123", now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at
		FROM contacts
		WHERE user_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id`)).
		WithArgs(int64(1), "%doe%").WillReturnRows(rows)

	found, err := r.Search(context.Background(), 1, "doe")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "John", found[0].FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresContactRepository_ExistsByEmailOrPhone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := repo.NewPostgresContactRepository(sqlxDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contacts WHERE user_id = $1 AND (email = $2 OR phone_number = $3)`)).
		WithArgs(int64(1), "john@x.com", "123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := r.ExistsByEmailOrPhone(context.Background(), 1, "john@x.com", "123")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
