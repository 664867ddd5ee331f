package store

import (
	"context"
	"io"

	"github.com/MKhiriev/lambda-search/models"
)

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// DatabaseRepository manages [models.ManagedDatabase] lifecycle records.
type DatabaseRepository interface {
	Create(ctx context.Context, database *models.ManagedDatabase) error
	GetByID(ctx context.Context, id int64) (models.ManagedDatabase, error)
	List(ctx context.Context) ([]models.ManagedDatabase, error)
	Update(ctx context.Context, update models.DatabaseUpdate) error
	Delete(ctx context.Context, id int64) (filePath string, err error)

	// ClaimEncryption atomically flips encryption_started from false to
	// true. It returns false when another job already holds the claim.
	ClaimEncryption(ctx context.Context, id int64) (bool, error)

	// ResetEncryption releases the claim after a failed ingestion run and
	// records the failure reason, leaving the dataset retryable.
	ResetEncryption(ctx context.Context, id int64, reason string) error

	// MarkEncrypted marks the dataset as fully processed and searchable.
	MarkEncrypted(ctx context.Context, id int64) error

	// SetJob records the identifier of the most recent ingestion job.
	SetJob(ctx context.Context, id int64, jobID string) error
}

// DataRepository manages the encrypted cell index.
type DataRepository interface {
	// BulkInsert persists one batch of index records for the given
	// database. Duplicate quadruples are silently skipped, so re-running
	// ingestion over the same source cannot create duplicates.
	BulkInsert(ctx context.Context, databaseID int64, records []models.IndexRecord) error

	// FindRowKeys returns the distinct (database, user_index) pairs whose
	// indexed value equals the given ciphertext. Only rows owned by active,
	// fully encrypted databases are considered.
	FindRowKeys(ctx context.Context, encryptedValue string) ([]models.RowKey, error)

	// FindRowsByKeys returns every indexed cell belonging to the given
	// source rows, ordered by database name and then user index.
	FindRowsByKeys(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error)
}

// HistoryRepository persists the audit log of executed searches.
type HistoryRepository interface {
	Append(ctx context.Context, entry *models.QueryHistory) error
	ListByUser(ctx context.Context, userID int64) ([]models.QueryHistory, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, user models.User) (models.User, error)
}

// FileStorage stores uploaded source dump files on disk. Paths returned by
// Save are the handles that the other methods and the format handlers use.
type FileStorage interface {
	Save(name string, src io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Exists(path string) bool
	Remove(path string) error
}
