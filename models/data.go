package models

// MaxValueLength is the maximum stored length of an encrypted cell value.
// Ciphertexts longer than this are truncated before persistence. Truncation
// can make very long ciphertexts non-reversible, which is acceptable because
// stored values are used purely for equality search and never decrypted.
const MaxValueLength = 255

// RowRefKind tags the origin of a row identifier. SQLite rowids and CSV
// line numbers live in unrelated namespaces and must never be compared
// across kinds.
type RowRefKind int

const (
	// SQLiteRowID marks an identifier assigned by the SQLite engine
	// (the implicit per-table rowid).
	SQLiteRowID RowRefKind = iota + 1

	// CSVLineNumber marks a 1-based data-row counter within a CSV file
	// (the header line is not counted).
	CSVLineNumber
)

// RowRef addresses one source row within its origin table or file.
type RowRef struct {
	Kind  RowRefKind
	Value int64
}

// Same reports whether two references address the same row. References of
// different kinds are never the same, regardless of value.
func (r RowRef) Same(other RowRef) bool {
	return r.Kind == other.Kind && r.Value == other.Value
}

// Data represents one decomposed encrypted cell, indexed for equality
// search. Records are bulk-created during ingestion, never mutated, and
// cascade-deleted with their owning ManagedDatabase.
//
// The quadruple (DatabaseID, UserIndex, ColumnName, Value) is unique;
// re-running ingestion over the same source cannot create duplicates.
type Data struct {
	// ID is the unique identifier of the record in the database.
	ID int64 `json:"id"`

	// DatabaseID is the owning ManagedDatabase.
	DatabaseID int64 `json:"database_id"`

	// UserIndex is the origin row's identifier within its source table:
	// the SQLite rowid or the 1-based CSV data-row number. It is not a
	// stable global row id.
	UserIndex int64 `json:"user_index"`

	// ColumnName is the origin column name, unnormalized.
	ColumnName string `json:"column_name"`

	// Value is the ciphertext, lowercase hex, truncated to MaxValueLength.
	Value string `json:"value"`
}

// TableName returns the name of the database table
// associated with the Data model.
func (d *Data) TableName() string {
	return "data"
}

// IndexRecord is the in-flight form of a [Data] row produced by a format
// handler during ingestion, addressed by a tagged RowRef instead of a bare
// integer so that handlers cannot conflate identifier namespaces.
type IndexRecord struct {
	Row        RowRef
	ColumnName string
	Value      string
}
