package service

import (
	"context"
	"io"

	"github.com/MKhiriev/lambda-search/internal/format"
	"github.com/MKhiriev/lambda-search/internal/workers"
	"github.com/MKhiriev/lambda-search/models"
)

// SearchService executes equality searches over the encrypted cell index.
type SearchService interface {
	// Search normalizes and encrypts query, finds every source row holding
	// the resulting ciphertext, and returns one classified result per
	// matched database. Every executed search is appended to the user's
	// query history, matches or not.
	Search(ctx context.Context, userID int64, query string) ([]models.SearchResult, error)

	// History returns the user's past searches, newest first.
	History(ctx context.Context, userID int64) ([]models.QueryHistory, error)
}

// DatabaseService manages uploaded leak datasets and their ingestion jobs.
type DatabaseService interface {
	// Upload stores the dump file, registers the dataset and enqueues its
	// ingestion job. The returned record carries the job identifier for
	// progress polling.
	Upload(ctx context.Context, upload models.DatabaseUpload, src io.Reader) (models.ManagedDatabase, error)

	// Reingest enqueues a fresh ingestion job for a dataset whose previous
	// run failed.
	Reingest(ctx context.Context, id int64) (models.ManagedDatabase, error)

	Get(ctx context.Context, id int64) (models.ManagedDatabase, error)
	List(ctx context.Context) ([]models.ManagedDatabase, error)
	Update(ctx context.Context, update models.DatabaseUpdate) error

	// Delete removes the dataset record, its indexed cells (by cascade)
	// and the stored dump file.
	Delete(ctx context.Context, id int64) error

	// Preview returns per-table column names and the first rows raw rows of
	// the stored dump file, encrypted or not. Non-positive rows falls back
	// to the configured default.
	Preview(ctx context.Context, id int64, rows int) (map[string]format.Preview, error)

	// Progress reports the state of an ingestion job.
	Progress(ctx context.Context, jobID string) models.JobProgress
}

// IngestService runs the ingestion engine for one dataset. Implementations
// are invoked by the job queue, never directly by handlers.
type IngestService interface {
	Run(ctx context.Context, databaseID int64, report func(models.JobProgress)) error
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// JobQueue enqueues background jobs and reports their progress. The worker
// pool implements it.
type JobQueue interface {
	Enqueue(jobID string, run workers.JobFunc) error
	Progress(jobID string) models.JobProgress
}
