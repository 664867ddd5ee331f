package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/lambda-search/internal/config"
	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/format"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/store"
	"github.com/MKhiriev/lambda-search/internal/utils"
	"github.com/MKhiriev/lambda-search/models"
)

const (
	maxNameLength    = 255
	maxHistoryLength = 500
)

// databaseService is the concrete implementation of DatabaseService. It
// owns the upload-to-searchable lifecycle of a dataset: storing the dump
// file, registering the record and handing the heavy encryption work to
// the job queue.
type databaseService struct {
	databases   store.DatabaseRepository
	files       store.FileStorage
	ingest      IngestService
	queue       JobQueue
	cipher      crypto.Cipher
	previewRows int
	uuid        *utils.UUIDGenerator
	logger      *logger.Logger
}

// NewDatabaseService constructs a DatabaseService over the given
// repositories, file storage and job queue.
func NewDatabaseService(databases store.DatabaseRepository, files store.FileStorage, ingest IngestService, queue JobQueue, cipher crypto.Cipher, cfg config.Ingest, logger *logger.Logger) DatabaseService {
	return &databaseService{
		databases:   databases,
		files:       files,
		ingest:      ingest,
		queue:       queue,
		cipher:      cipher,
		previewRows: cfg.PreviewRows,
		uuid:        utils.NewUUIDGenerator(),
		logger:      logger,
	}
}

// Upload registers a new dataset and enqueues its ingestion job.
//
// The file extension is checked against the format registry before a
// single byte is stored. If registering the record fails after the file
// was stored, the file is removed again so the dump directory holds no
// orphans.
func (s *databaseService) Upload(ctx context.Context, upload models.DatabaseUpload, src io.Reader) (models.ManagedDatabase, error) {
	log := logger.FromContext(ctx)

	if err := validateUpload(upload); err != nil {
		return models.ManagedDatabase{}, err
	}

	if !format.Supported(upload.FileName) {
		return models.ManagedDatabase{}, format.ErrUnsupportedFormat
	}

	path, err := s.files.Save(upload.FileName, src)
	if err != nil {
		return models.ManagedDatabase{}, fmt.Errorf("failed to store dump file: %w", err)
	}

	database := models.ManagedDatabase{
		Name:     strings.TrimSpace(upload.Name),
		FilePath: path,
		History:  upload.History,
		Active:   true,
	}

	if err = s.databases.Create(ctx, &database); err != nil {
		if removeErr := s.files.Remove(path); removeErr != nil {
			log.Err(removeErr).
				Str("func", "databaseService.Upload").
				Str("path", path).
				Msg("failed to remove dump file after create failure")
		}
		return models.ManagedDatabase{}, err
	}

	jobID, err := s.enqueueIngestion(ctx, database.ID)
	if err != nil {
		return models.ManagedDatabase{}, err
	}
	database.JobID = jobID

	log.Info().
		Str("func", "databaseService.Upload").
		Int64("database_id", database.ID).
		Str("name", database.Name).
		Str("job_id", jobID).
		Msg("dataset registered, ingestion enqueued")

	return database, nil
}

// Reingest enqueues a fresh ingestion job for a dataset whose previous run
// failed. A dataset that is fully encrypted or currently being processed
// cannot be re-ingested.
func (s *databaseService) Reingest(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	database, err := s.databases.GetByID(ctx, id)
	if err != nil {
		return models.ManagedDatabase{}, err
	}

	if database.IsEncrypted {
		return models.ManagedDatabase{}, ErrAlreadyEncrypted
	}
	if database.EncryptionStarted {
		return models.ManagedDatabase{}, ErrIngestionRunning
	}

	jobID, err := s.enqueueIngestion(ctx, id)
	if err != nil {
		return models.ManagedDatabase{}, err
	}
	database.JobID = jobID
	database.Error = ""

	return database, nil
}

func (s *databaseService) Get(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	return s.databases.GetByID(ctx, id)
}

func (s *databaseService) List(ctx context.Context) ([]models.ManagedDatabase, error) {
	return s.databases.List(ctx)
}

// Update applies a partial metadata update. Lifecycle fields are not
// reachable through it.
func (s *databaseService) Update(ctx context.Context, update models.DatabaseUpdate) error {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return ErrInvalidDataProvided
		}
		if len(trimmed) > maxNameLength {
			return ErrNameTooLong
		}
		update.Name = &trimmed
	}
	if update.History != nil && len(*update.History) > maxHistoryLength {
		return ErrHistoryTooLong
	}

	return s.databases.Update(ctx, update)
}

// Delete removes the dataset record and its stored dump file. Indexed
// cells disappear with the record by cascade.
func (s *databaseService) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	path, err := s.databases.Delete(ctx, id)
	if err != nil {
		return err
	}

	if path != "" {
		if removeErr := s.files.Remove(path); removeErr != nil {
			// the record is gone; a leftover file is logged, not fatal
			log.Err(removeErr).
				Str("func", "databaseService.Delete").
				Int64("database_id", id).
				Str("path", path).
				Msg("failed to remove dump file")
		}
	}

	return nil
}

// Preview returns per-table column names and the first rows raw rows of
// the stored dump file, exactly as stored.
func (s *databaseService) Preview(ctx context.Context, id int64, rows int) (map[string]format.Preview, error) {
	if rows <= 0 {
		rows = s.previewRows
	}

	database, err := s.databases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	handler, err := format.New(database.FilePath, s.cipher, 0)
	if err != nil {
		return nil, err
	}

	preview, err := handler.ReadPreview(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read preview: %w", err)
	}

	return preview, nil
}

// Progress reports the state of an ingestion job. Unknown job ids answer
// as pending, never as an error: the poller may simply be ahead of the
// worker.
func (s *databaseService) Progress(ctx context.Context, jobID string) models.JobProgress {
	return s.queue.Progress(jobID)
}

func (s *databaseService) enqueueIngestion(ctx context.Context, databaseID int64) (string, error) {
	log := logger.FromContext(ctx)

	jobID := s.uuid.Generate()

	if err := s.databases.SetJob(ctx, databaseID, jobID); err != nil {
		return "", err
	}

	err := s.queue.Enqueue(jobID, func(jobCtx context.Context, report func(models.JobProgress)) error {
		return s.ingest.Run(jobCtx, databaseID, report)
	})
	if err != nil {
		log.Err(err).
			Str("func", "databaseService.enqueueIngestion").
			Int64("database_id", databaseID).
			Str("job_id", jobID).
			Msg("failed to enqueue ingestion job")
		return "", fmt.Errorf("failed to enqueue ingestion job: %w", err)
	}

	return jobID, nil
}

func validateUpload(upload models.DatabaseUpload) error {
	name := strings.TrimSpace(upload.Name)
	if name == "" || upload.FileName == "" {
		return ErrInvalidDataProvided
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	if len(upload.History) > maxHistoryLength {
		return ErrHistoryTooLong
	}

	return nil
}
