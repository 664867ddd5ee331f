package models

import "time"

// QueryHistory records one executed search for audit and replay. The query
// is stored in its encrypted form; the result blob is the serialized slice
// of [SearchResult] the user was shown.
type QueryHistory struct {
	// ID is the unique identifier of the record in the database.
	ID int64 `json:"id"`

	// UserID is the account that executed the search.
	UserID int64 `json:"-"`

	// Query is the encrypted (hex) search string.
	Query string `json:"query"`

	// Results is the classified, grouped result set at the time of the
	// search. Persisted as JSON.
	Results []SearchResult `json:"results"`

	// CreatedAt is the timestamp when the search was executed.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the QueryHistory model.
func (q *QueryHistory) TableName() string {
	return "query_history"
}
