package models

// SensitivityTier is the classification bucket assigned to a matched column
// based on its canonical meaning.
type SensitivityTier string

const (
	TierCritical SensitivityTier = "critical"
	TierMedium   SensitivityTier = "medium"
	TierLow      SensitivityTier = "low"
)

// ClassifiedColumns groups the canonical column names matched for one
// source database by sensitivity tier. Each list is de-duplicated and keeps
// first-seen order.
type ClassifiedColumns struct {
	Critical []string `json:"critical"`
	Medium   []string `json:"medium"`
	Low      []string `json:"low"`
}

// SearchResult is one record per source database that contained the queried
// value.
type SearchResult struct {
	// Database is the name of the matched ManagedDatabase.
	Database string `json:"database"`

	// History is the owning database's leak note.
	History string `json:"history"`

	// Data holds the matched column names classified by sensitivity.
	Data ClassifiedColumns `json:"data"`
}

// SearchRequest is the body of the search endpoint.
type SearchRequest struct {
	Query string `json:"query"`
}

// RowKey identifies one matched source row as a (database, user_index)
// pair. Pairs are de-duplicated before full rows are fetched.
type RowKey struct {
	DatabaseID int64
	UserIndex  int64
}

// MatchedCell is one indexed cell belonging to a matched source row,
// joined with its owning database's name and history note. The search
// engine groups these into [SearchResult] records.
type MatchedCell struct {
	DatabaseID   int64
	DatabaseName string
	History      string
	UserIndex    int64
	ColumnName   string
	Value        string
}
