package models

import "time"

// ManagedDatabase represents one uploaded leak-data source file together
// with its lifecycle metadata. A database participates in search only when
// it is both Active and IsEncrypted.
type ManagedDatabase struct {
	// ID is the unique identifier of the record in the database.
	ID int64 `json:"id"`

	// Name is the unique human-readable name of the uploaded source.
	Name string `json:"name"`

	// FilePath is the path of the stored upload inside the dump directory.
	// It is not exposed via JSON; the file is never served directly.
	FilePath string `json:"-"`

	// History is a short note about the leak (at most 500 characters).
	History string `json:"history"`

	// Active reports whether the database participates in search.
	Active bool `json:"active"`

	// IsEncrypted flips to true only after the ingestion job has
	// successfully processed every row of the source file.
	IsEncrypted bool `json:"is_encrypted"`

	// EncryptionStarted is the idempotency guard preventing two ingestion
	// jobs from processing the same dataset concurrently. It is claimed
	// with a compare-and-swap update and reset on failure so the dataset
	// stays retryable.
	EncryptionStarted bool `json:"-"`

	// JobID is the identifier of the most recent ingestion job, used by
	// the progress polling endpoint. Empty until a job has been enqueued.
	JobID string `json:"job_id,omitempty"`

	// Error holds the human-readable description of the last ingestion
	// failure. Cleared when a retry is enqueued.
	Error string `json:"error,omitempty"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last modification.
	UpdatedAt time.Time `json:"updated_at"`
}

// DatabaseUpload carries the metadata of a new dataset upload. FileName is
// the client-side name of the dump file; its extension selects the format
// handler.
type DatabaseUpload struct {
	Name     string `json:"name"`
	History  string `json:"history"`
	FileName string `json:"file_name"`
}

// DatabaseUpdate describes a partial update of a [ManagedDatabase]. Nil
// fields are left untouched. Lifecycle fields (IsEncrypted,
// EncryptionStarted, JobID, Error) are managed by the ingestion engine and
// cannot be set through an update request.
type DatabaseUpdate struct {
	ID      int64   `json:"-"`
	Name    *string `json:"name,omitempty"`
	History *string `json:"history,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// Searchable reports whether the database may contribute rows to search
// results.
func (d *ManagedDatabase) Searchable() bool {
	return d.Active && d.IsEncrypted
}

// TableName returns the name of the database table
// associated with the ManagedDatabase model.
func (d *ManagedDatabase) TableName() string {
	return "managed_databases"
}
