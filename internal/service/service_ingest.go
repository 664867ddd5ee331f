package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/lambda-search/internal/config"
	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/format"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/store"
	"github.com/MKhiriev/lambda-search/models"
)

// ingestService is the concrete implementation of IngestService. One Run
// call drives the full pipeline for a dataset: claim, validate, count,
// encrypt, commit. The exclusive claim on encryption_started guarantees at
// most one run per dataset at a time; the claim is released on failure so
// the dataset stays retryable.
type ingestService struct {
	databases store.DatabaseRepository
	data      store.DataRepository
	cipher    crypto.Cipher
	batchSize int
	logger    *logger.Logger
}

// NewIngestService constructs an IngestService writing index batches of
// cfg.BatchSize records through the given repositories.
func NewIngestService(databases store.DatabaseRepository, data store.DataRepository, cipher crypto.Cipher, cfg config.Ingest, logger *logger.Logger) IngestService {
	return &ingestService{
		databases: databases,
		data:      data,
		cipher:    cipher,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

// indexSink adapts the data repository to [format.Sink] by binding the
// owning database id.
type indexSink struct {
	data       store.DataRepository
	databaseID int64
}

func (s indexSink) Flush(ctx context.Context, records []models.IndexRecord) error {
	return s.data.BulkInsert(ctx, s.databaseID, records)
}

// Run executes the ingestion pipeline for one dataset.
//
// The dataset becomes searchable only after every row has been processed;
// any failure between claim and commit resets the claim and records the
// reason on the dataset. Progress is reported after every processed row.
func (s *ingestService) Run(ctx context.Context, databaseID int64, report func(models.JobProgress)) error {
	log := logger.FromContext(ctx)

	claimed, err := s.databases.ClaimEncryption(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("failed to claim encryption: %w", err)
	}
	if !claimed {
		log.Warn().
			Str("func", "ingestService.Run").
			Int64("database_id", databaseID).
			Msg("encryption claim already held, skipping run")
		return ErrIngestionRunning
	}

	if runErr := s.run(ctx, databaseID, report); runErr != nil {
		log.Err(runErr).
			Str("func", "ingestService.Run").
			Int64("database_id", databaseID).
			Msg("ingestion failed, releasing claim")

		// The failure may be a cancellation of ctx itself, so the claim
		// release must run on a context that survives it. A claim left
		// held would block every future Reingest of the dataset.
		cleanupCtx := context.WithoutCancel(ctx)
		if resetErr := s.databases.ResetEncryption(cleanupCtx, databaseID, runErr.Error()); resetErr != nil {
			log.Err(resetErr).
				Str("func", "ingestService.Run").
				Int64("database_id", databaseID).
				Msg("failed to release encryption claim")
		}

		report(models.JobProgress{State: models.JobStateFailed, Description: runErr.Error()})
		return runErr
	}

	return nil
}

func (s *ingestService) run(ctx context.Context, databaseID int64, report func(models.JobProgress)) error {
	log := logger.FromContext(ctx)

	database, err := s.databases.GetByID(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("failed to load database record: %w", err)
	}

	handler, err := format.New(database.FilePath, s.cipher, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to select format handler: %w", err)
	}

	report(models.JobProgress{State: models.JobStateValidating, Description: "validating source file"})

	if err = handler.Validate(ctx); err != nil {
		return fmt.Errorf("source file validation failed: %w", err)
	}

	total, err := handler.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to count source rows: %w", err)
	}

	log.Info().
		Str("func", "ingestService.run").
		Int64("database_id", databaseID).
		Str("name", database.Name).
		Int64("total_rows", total).
		Msg("starting encryption")

	sink := indexSink{data: s.data, databaseID: databaseID}
	progress := func(processed int64) {
		report(progressFor(models.JobStateEncrypting, processed, total))
	}
	report(progressFor(models.JobStateEncrypting, 0, total))

	if err = handler.Encrypt(ctx, sink, progress); err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}

	if err = s.databases.MarkEncrypted(ctx, databaseID); err != nil {
		return fmt.Errorf("failed to mark database encrypted: %w", err)
	}

	report(progressFor(models.JobStateDone, total, total))

	log.Info().
		Str("func", "ingestService.run").
		Int64("database_id", databaseID).
		Str("name", database.Name).
		Msg("database encrypted and searchable")

	return nil
}

func progressFor(state models.JobState, processed, total int64) models.JobProgress {
	percent := 0
	if total > 0 {
		percent = int(processed * 100 / total)
	}

	return models.JobProgress{
		State:       state,
		Current:     processed,
		Total:       total,
		Percent:     percent,
		Description: fmt.Sprintf("%d/%d rows processed", processed, total),
	}
}
