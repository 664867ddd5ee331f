// Package format implements the pluggable source-file handlers of the
// ingestion pipeline. A handler knows how to validate one file format,
// count its rows, stream-encrypt its textual cells in place, and read a
// raw preview. Handlers are selected by file extension through [New].
package format

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/models"
)

// DefaultBatchSize is the number of buffered index records flushed to the
// sink per call when the caller does not configure its own size.
const DefaultBatchSize = 5000

// Sink receives batches of index records produced during encryption.
// The persistence layer implements it; handlers know nothing about what
// happens to a flushed batch.
type Sink interface {
	Flush(ctx context.Context, records []models.IndexRecord) error
}

// ProgressFunc is invoked after every processed source row with the total
// number of rows processed so far. Reporting is fire-and-forget; the
// handler has no awareness of how progress is consumed downstream.
type ProgressFunc func(rowsProcessed int64)

// Preview is the raw content sample of one source table: its column names
// and the first rows, exactly as stored — encrypted or not.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Handler is the capability set every supported source format provides.
type Handler interface {
	// Validate probes the file and returns a FormatError (ErrInvalidFormat)
	// if it is not a readable instance of the claimed format. Ingestion
	// must not proceed past a failed validation.
	Validate(ctx context.Context) error

	// CountRows returns the total number of data rows in the source,
	// summed across tables for multi-table formats.
	CountRows(ctx context.Context) (int64, error)

	// Encrypt walks every row, normalizes and encrypts every textual cell,
	// rewrites the file in place with ciphertext, and streams index
	// records to sink in batches. progress is called after each row.
	Encrypt(ctx context.Context, sink Sink, progress ProgressFunc) error

	// ReadPreview returns per-table column names and the first n raw rows.
	// It works whether or not the data has been encrypted yet.
	ReadPreview(ctx context.Context, n int) (map[string]Preview, error)
}

type constructor func(path string, cipher crypto.Cipher, batchSize int) Handler

// handlers is the extension lookup table. Registration is static: two
// formats, known at compile time.
var handlers = map[string]constructor{
	".sqlite": newSQLiteHandler,
	".db":     newSQLiteHandler,
	".csv":    newCSVHandler,
}

// New selects a handler for path by its file extension. Unsupported
// extensions fail with ErrUnsupportedFormat before any byte of the file is
// touched.
func New(path string, cipher crypto.Cipher, batchSize int) (Handler, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	construct, ok := handlers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	return construct(path, cipher, batchSize), nil
}

// Supported reports whether the file extension of path belongs to a known
// format. Used by the upload endpoint to reject files early.
func Supported(path string) bool {
	_, ok := handlers[strings.ToLower(filepath.Ext(path))]
	return ok
}
