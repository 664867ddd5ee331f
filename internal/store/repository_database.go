package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
)

// databaseRepository is the PostgreSQL-backed implementation of
// [DatabaseRepository]. It owns all lifecycle state transitions of the
// "managed_databases" table, including the compare-and-swap encryption
// claim that serializes ingestion jobs per dataset.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced with
// structured fields (database_id, job_id, etc.).
type databaseRepository struct {
	*DB
	logger *logger.Logger
}

// NewDatabaseRepository constructs a [DatabaseRepository] backed by the
// provided database connection and logger.
func NewDatabaseRepository(db *DB, logger *logger.Logger) DatabaseRepository {
	logger.Debug().Msg("creating managed database repository")
	return &databaseRepository{
		DB:     db,
		logger: logger,
	}
}

// Create persists a new managed database record and fills the
// server-assigned fields (ID, CreatedAt, UpdatedAt) back into database.
//
// A PostgreSQL unique violation on the name column is translated to
// [ErrDatabaseNameExists].
func (r *databaseRepository) Create(ctx context.Context, database *models.ManagedDatabase) error {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, createDatabase,
		database.Name,
		database.FilePath,
		database.History,
		database.Active,
	)

	if err := scanDatabase(row, database); err != nil {
		if IsUniqueViolation(err) {
			log.Warn().
				Str("func", "databaseRepository.Create").
				Str("name", database.Name).
				Msg("database name already exists")
			return ErrDatabaseNameExists
		}

		log.Err(err).
			Str("func", "databaseRepository.Create").
			Str("name", database.Name).
			Msg("failed to create managed database")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// GetByID retrieves a single managed database record.
//
// Returns [ErrDatabaseNotFound] when no record matches id.
func (r *databaseRepository) GetByID(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	log := logger.FromContext(ctx)

	var database models.ManagedDatabase

	row := r.DB.QueryRowContext(ctx, getDatabaseByID, id)
	if err := scanDatabase(row, &database); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ManagedDatabase{}, ErrDatabaseNotFound
		}

		log.Err(err).
			Str("func", "databaseRepository.GetByID").
			Int64("database_id", id).
			Msg("failed to get managed database")
		return models.ManagedDatabase{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return database, nil
}

// List returns every managed database record ordered by name.
func (r *databaseRepository) List(ctx context.Context) ([]models.ManagedDatabase, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listDatabases)
	if err != nil {
		log.Err(err).
			Str("func", "databaseRepository.List").
			Msg("failed to execute query for listing managed databases")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	databases := make([]models.ManagedDatabase, 0, 10)

	for rows.Next() {
		var database models.ManagedDatabase

		if scanErr := scanDatabase(rows, &database); scanErr != nil {
			log.Err(scanErr).
				Str("func", "databaseRepository.List").
				Msg("failed to scan managed database row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		databases = append(databases, database)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "databaseRepository.List").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return databases, nil
}

// Update applies a partial update built from the non-nil fields of update.
//
// A request with no updatable fields set is a no-op. Renaming onto an
// existing name returns [ErrDatabaseNameExists]; a missing record returns
// [ErrDatabaseNotFound].
func (r *databaseRepository) Update(ctx context.Context, update models.DatabaseUpdate) error {
	log := logger.FromContext(ctx)

	query, args := buildUpdateDatabaseQuery(update)

	if len(args) == 1 {
		log.Warn().
			Str("func", "databaseRepository.Update").
			Int64("database_id", update.ID).
			Msg("no fields to update, skipping")
		return nil
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDatabaseNameExists
		}

		log.Err(err).
			Str("func", "databaseRepository.Update").
			Int64("database_id", update.ID).
			Msg("failed to execute update query")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrDatabaseNotFound
	}

	return nil
}

// Delete removes a managed database record and returns the stored file path
// so that the caller can remove the dump file as well. Indexed cells are
// removed by the ON DELETE CASCADE constraint on the data table.
func (r *databaseRepository) Delete(ctx context.Context, id int64) (string, error) {
	log := logger.FromContext(ctx)

	var filePath string

	err := r.DB.QueryRowContext(ctx, deleteDatabase, id).Scan(&filePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrDatabaseNotFound
		}

		log.Err(err).
			Str("func", "databaseRepository.Delete").
			Int64("database_id", id).
			Msg("failed to delete managed database")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "databaseRepository.Delete").
		Int64("database_id", id).
		Msg("deleted managed database")

	return filePath, nil
}

// ClaimEncryption attempts the compare-and-swap claim of the dataset.
//
// Exactly one of any number of concurrent callers observes true; the rest
// observe false and must not start an ingestion run.
func (r *databaseRepository) ClaimEncryption(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, claimEncryption, id)
	if err != nil {
		log.Err(err).
			Str("func", "databaseRepository.ClaimEncryption").
			Int64("database_id", id).
			Msg("failed to execute encryption claim")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	claimed := affected == 1

	log.Debug().
		Str("func", "databaseRepository.ClaimEncryption").
		Int64("database_id", id).
		Bool("claimed", claimed).
		Msg("encryption claim attempted")

	return claimed, nil
}

// ResetEncryption releases the encryption claim and records the failure
// reason so the dataset can be retried.
func (r *databaseRepository) ResetEncryption(ctx context.Context, id int64, reason string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, resetEncryption, id, reason); err != nil {
		log.Err(err).
			Str("func", "databaseRepository.ResetEncryption").
			Int64("database_id", id).
			Msg("failed to reset encryption claim")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// MarkEncrypted marks the dataset as fully processed. From this point the
// database is eligible for search, provided it is active.
func (r *databaseRepository) MarkEncrypted(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, markEncrypted, id); err != nil {
		log.Err(err).
			Str("func", "databaseRepository.MarkEncrypted").
			Int64("database_id", id).
			Msg("failed to mark database encrypted")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "databaseRepository.MarkEncrypted").
		Int64("database_id", id).
		Msg("database marked encrypted")

	return nil
}

// SetJob records the identifier of the most recent ingestion job for the
// progress polling endpoint.
func (r *databaseRepository) SetJob(ctx context.Context, id int64, jobID string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, setDatabaseJob, id, jobID); err != nil {
		log.Err(err).
			Str("func", "databaseRepository.SetJob").
			Int64("database_id", id).
			Str("job_id", jobID).
			Msg("failed to set database job id")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDatabase(row rowScanner, database *models.ManagedDatabase) error {
	return row.Scan(
		&database.ID,
		&database.Name,
		&database.FilePath,
		&database.History,
		&database.Active,
		&database.IsEncrypted,
		&database.EncryptionStarted,
		&database.JobID,
		&database.Error,
		&database.CreatedAt,
		&database.UpdatedAt,
	)
}
