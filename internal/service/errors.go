package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")

	// ErrEmptyQuery is returned for a search request whose query is empty
	// after trimming surrounding whitespace.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrNameTooLong and ErrHistoryTooLong guard the length limits of a
	// dataset's name and leak note.
	ErrNameTooLong    = errors.New("database name is too long")
	ErrHistoryTooLong = errors.New("database history note is too long")

	// ErrIngestionRunning is returned when an ingestion is requested for a
	// dataset whose encryption claim is already held by another job.
	ErrIngestionRunning = errors.New("ingestion is already running for this database")

	// ErrAlreadyEncrypted is returned when re-ingestion is requested for a
	// dataset that has been fully processed.
	ErrAlreadyEncrypted = errors.New("database is already encrypted")
)
