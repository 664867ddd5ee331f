package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
)

// historyRepository is the PostgreSQL-backed implementation of
// [HistoryRepository]. Result sets are persisted as a JSONB blob keeping
// the exact classified grouping the user was shown.
type historyRepository struct {
	*DB
	logger *logger.Logger
}

// NewHistoryRepository constructs a [HistoryRepository] backed by the
// provided database connection and logger.
func NewHistoryRepository(db *DB, logger *logger.Logger) HistoryRepository {
	logger.Debug().Msg("creating query history repository")
	return &historyRepository{
		DB:     db,
		logger: logger,
	}
}

// Append persists one executed search. The server-assigned fields (ID,
// CreatedAt) are written back into entry.
func (r *historyRepository) Append(ctx context.Context, entry *models.QueryHistory) error {
	log := logger.FromContext(ctx)

	results, err := json.Marshal(entry.Results)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.Append").
			Int64("user_id", entry.UserID).
			Msg("failed to marshal search results")
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	err = r.DB.QueryRowContext(ctx, appendQueryHistory,
		entry.UserID,
		entry.Query,
		results,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.Append").
			Int64("user_id", entry.UserID).
			Msg("failed to append query history entry")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// ListByUser returns the user's search history, newest first.
func (r *historyRepository) ListByUser(ctx context.Context, userID int64) ([]models.QueryHistory, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listQueryHistory, userID)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.ListByUser").
			Int64("user_id", userID).
			Msg("failed to execute query history lookup")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.QueryHistory, 0, 20)

	for rows.Next() {
		var entry models.QueryHistory
		var results []byte

		scanErr := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Query,
			&results,
			&entry.CreatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "historyRepository.ListByUser").
				Int64("user_id", userID).
				Msg("failed to scan query history row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		if unmarshalErr := json.Unmarshal(results, &entry.Results); unmarshalErr != nil {
			log.Err(unmarshalErr).
				Str("func", "historyRepository.ListByUser").
				Int64("user_id", userID).
				Int64("entry_id", entry.ID).
				Msg("failed to unmarshal stored search results")
			return nil, fmt.Errorf("failed to unmarshal stored search results: %w", unmarshalErr)
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "historyRepository.ListByUser").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return entries, nil
}
