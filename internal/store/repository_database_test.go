package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

var databaseColumns = []string{
	"id", "name", "file_path", "history", "active",
	"is_encrypted", "encryption_started", "job_id", "error",
	"created_at", "updated_at",
}

func TestDatabaseRepository_Create(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	now := time.Now()
	database := models.ManagedDatabase{
		Name:     "collection-1",
		FilePath: "/dumps/collection-1.sqlite",
		History:  "2019 credential dump",
		Active:   true,
	}

	rows := sqlmock.NewRows(databaseColumns).
		AddRow(7, database.Name, database.FilePath, database.History, true, false, false, "", "", now, now)

	mock.ExpectQuery("INSERT INTO managed_databases").
		WithArgs(database.Name, database.FilePath, database.History, true).
		WillReturnRows(rows)

	err := repo.Create(testContext(), &database)
	require.NoError(t, err)
	require.Equal(t, int64(7), database.ID)
	require.False(t, database.IsEncrypted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepository_CreateDuplicateName(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectQuery("INSERT INTO managed_databases").
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	database := models.ManagedDatabase{Name: "collection-1"}
	err := repo.Create(testContext(), &database)
	require.ErrorIs(t, err, ErrDatabaseNameExists)
}

func TestDatabaseRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectQuery("SELECT (.+) FROM managed_databases").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(testContext(), 42)
	require.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestDatabaseRepository_ClaimEncryption(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	// first claim wins
	mock.ExpectExec("UPDATE managed_databases").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimEncryption(testContext(), 5)
	require.NoError(t, err)
	require.True(t, claimed)

	// second claim loses: the guard matches no rows
	mock.ExpectExec("UPDATE managed_databases").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err = repo.ClaimEncryption(testContext(), 5)
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepository_ResetEncryption(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectExec("UPDATE managed_databases").
		WithArgs(int64(5), "row 3: cipher error").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ResetEncryption(testContext(), 5, "row 3: cipher error"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepository_UpdateNoFields(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	// nothing to set: no query at all is expected
	err := repo.Update(testContext(), models.DatabaseUpdate{ID: 1})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRepository_UpdateNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	active := false
	mock.ExpectExec("UPDATE managed_databases").
		WithArgs(active, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(testContext(), models.DatabaseUpdate{ID: 99, Active: &active})
	require.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestDatabaseRepository_DeleteReturnsFilePath(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectQuery("DELETE FROM managed_databases").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"file_path"}).AddRow("/dumps/x.csv"))

	path, err := repo.Delete(testContext(), 3)
	require.NoError(t, err)
	require.Equal(t, "/dumps/x.csv", path)
}

func TestDatabaseRepository_ListScanError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewDatabaseRepository(newDBFromSQL(db), logger.Nop())

	// wrong row shape forces a scan failure
	mock.ExpectQuery("SELECT (.+) FROM managed_databases").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := repo.List(testContext())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrScanningRow))
}
