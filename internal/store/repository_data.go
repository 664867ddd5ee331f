package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
)

// dataRepository is the PostgreSQL-backed implementation of
// [DataRepository]. It owns the encrypted cell index in the "data" table:
// batched writes during ingestion and the two-step equality lookup used by
// the search engine.
type dataRepository struct {
	*DB
	logger *logger.Logger
}

// NewDataRepository constructs a [DataRepository] backed by the provided
// database connection and logger.
func NewDataRepository(db *DB, logger *logger.Logger) DataRepository {
	logger.Debug().Msg("creating data index repository")
	return &dataRepository{
		DB:     db,
		logger: logger,
	}
}

// BulkInsert persists one batch of index records inside a single
// transaction using a prepared statement.
//
// The INSERT carries ON CONFLICT DO NOTHING on the unique quadruple, so a
// batch that overlaps previously indexed rows inserts only the new ones.
// The tagged row reference of each record collapses to its bare value here;
// the identifier namespace is fixed per database because one source file
// yields rows of exactly one kind.
func (r *dataRepository) BulkInsert(ctx context.Context, databaseID int64, records []models.IndexRecord) error {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.BulkInsert").
			Int64("database_id", databaseID).
			Int("count", len(records)).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertIndexRecord)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.BulkInsert").
			Int64("database_id", databaseID).
			Msg("failed to prepare statement")
		return fmt.Errorf("%w: %w", ErrPreparingStatement, err)
	}
	defer stmt.Close()

	for _, record := range records {
		if _, execErr := stmt.ExecContext(ctx,
			databaseID,
			record.Row.Value,
			record.ColumnName,
			record.Value,
		); execErr != nil {
			log.Err(execErr).
				Str("func", "dataRepository.BulkInsert").
				Int64("database_id", databaseID).
				Int64("user_index", record.Row.Value).
				Str("column_name", record.ColumnName).
				Msg("failed to insert index record")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "dataRepository.BulkInsert").
			Int64("database_id", databaseID).
			Int("count", len(records)).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Debug().
		Str("func", "dataRepository.BulkInsert").
		Int64("database_id", databaseID).
		Int("count", len(records)).
		Msg("flushed index record batch")

	return nil
}

// FindRowKeys returns the distinct source rows whose indexed value equals
// encryptedValue. The join restricts hits to active, fully encrypted
// databases, so half-ingested or disabled datasets never leak into results.
func (r *dataRepository) FindRowKeys(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, findRowKeysByValue, encryptedValue)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.FindRowKeys").
			Msg("failed to execute row key lookup")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	keys := make([]models.RowKey, 0, 10)

	for rows.Next() {
		var key models.RowKey

		if scanErr := rows.Scan(&key.DatabaseID, &key.UserIndex); scanErr != nil {
			log.Err(scanErr).
				Str("func", "dataRepository.FindRowKeys").
				Msg("failed to scan row key")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		keys = append(keys, key)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "dataRepository.FindRowKeys").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return keys, nil
}

// FindRowsByKeys expands matched source rows into their full cell sets,
// joined with database name and history note, ordered by database name and
// user index. An empty key list yields an empty result without touching
// the database.
func (r *dataRepository) FindRowsByKeys(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
	log := logger.FromContext(ctx)

	if len(keys) == 0 {
		return []models.MatchedCell{}, nil
	}

	query, args, err := buildFindRowsByKeysQuery(keys)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.FindRowsByKeys").
			Int("keys_count", len(keys)).
			Msg("failed to build row expansion query")
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.FindRowsByKeys").
			Int("keys_count", len(keys)).
			Msg("failed to execute row expansion query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	cells := make([]models.MatchedCell, 0, len(keys)*4)

	for rows.Next() {
		var cell models.MatchedCell

		scanErr := rows.Scan(
			&cell.DatabaseID,
			&cell.DatabaseName,
			&cell.History,
			&cell.UserIndex,
			&cell.ColumnName,
			&cell.Value,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "dataRepository.FindRowsByKeys").
				Msg("failed to scan matched cell")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		cells = append(cells, cell)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "dataRepository.FindRowsByKeys").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return cells, nil
}
