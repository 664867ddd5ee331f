package service

import (
	"context"
	"io"

	"github.com/MKhiriev/lambda-search/internal/workers"
	"github.com/MKhiriev/lambda-search/models"
)

// Hand-written repository fakes. Function fields left nil make the call
// fail loudly via nil dereference, so every test declares exactly the
// behavior it depends on.

type fakeDatabaseRepo struct {
	create          func(ctx context.Context, database *models.ManagedDatabase) error
	getByID         func(ctx context.Context, id int64) (models.ManagedDatabase, error)
	list            func(ctx context.Context) ([]models.ManagedDatabase, error)
	update          func(ctx context.Context, update models.DatabaseUpdate) error
	delete          func(ctx context.Context, id int64) (string, error)
	claimEncryption func(ctx context.Context, id int64) (bool, error)
	resetEncryption func(ctx context.Context, id int64, reason string) error
	markEncrypted   func(ctx context.Context, id int64) error
	setJob          func(ctx context.Context, id int64, jobID string) error
}

func (f *fakeDatabaseRepo) Create(ctx context.Context, database *models.ManagedDatabase) error {
	return f.create(ctx, database)
}

func (f *fakeDatabaseRepo) GetByID(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	return f.getByID(ctx, id)
}

func (f *fakeDatabaseRepo) List(ctx context.Context) ([]models.ManagedDatabase, error) {
	return f.list(ctx)
}

func (f *fakeDatabaseRepo) Update(ctx context.Context, update models.DatabaseUpdate) error {
	return f.update(ctx, update)
}

func (f *fakeDatabaseRepo) Delete(ctx context.Context, id int64) (string, error) {
	return f.delete(ctx, id)
}

func (f *fakeDatabaseRepo) ClaimEncryption(ctx context.Context, id int64) (bool, error) {
	return f.claimEncryption(ctx, id)
}

func (f *fakeDatabaseRepo) ResetEncryption(ctx context.Context, id int64, reason string) error {
	return f.resetEncryption(ctx, id, reason)
}

func (f *fakeDatabaseRepo) MarkEncrypted(ctx context.Context, id int64) error {
	return f.markEncrypted(ctx, id)
}

func (f *fakeDatabaseRepo) SetJob(ctx context.Context, id int64, jobID string) error {
	return f.setJob(ctx, id, jobID)
}

type fakeDataRepo struct {
	bulkInsert     func(ctx context.Context, databaseID int64, records []models.IndexRecord) error
	findRowKeys    func(ctx context.Context, encryptedValue string) ([]models.RowKey, error)
	findRowsByKeys func(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error)
}

func (f *fakeDataRepo) BulkInsert(ctx context.Context, databaseID int64, records []models.IndexRecord) error {
	return f.bulkInsert(ctx, databaseID, records)
}

func (f *fakeDataRepo) FindRowKeys(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
	return f.findRowKeys(ctx, encryptedValue)
}

func (f *fakeDataRepo) FindRowsByKeys(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
	return f.findRowsByKeys(ctx, keys)
}

type fakeHistoryRepo struct {
	entries []models.QueryHistory
	failErr error
}

func (f *fakeHistoryRepo) Append(ctx context.Context, entry *models.QueryHistory) error {
	if f.failErr != nil {
		return f.failErr
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByUser(ctx context.Context, userID int64) ([]models.QueryHistory, error) {
	out := make([]models.QueryHistory, 0, len(f.entries))
	for _, entry := range f.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	createUser      func(ctx context.Context, user models.User) (models.User, error)
	findUserByLogin func(ctx context.Context, user models.User) (models.User, error)
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	return f.createUser(ctx, user)
}

func (f *fakeUserRepo) FindUserByLogin(ctx context.Context, user models.User) (models.User, error) {
	return f.findUserByLogin(ctx, user)
}

type fakeFileStorage struct {
	saved   map[string]string
	removed []string
	saveErr error
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{saved: make(map[string]string)}
}

func (f *fakeFileStorage) Save(name string, src io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	content, _ := io.ReadAll(src)
	path := "/dumps/" + name
	f.saved[path] = string(content)
	return path, nil
}

func (f *fakeFileStorage) Open(path string) (io.ReadCloser, error) {
	return nil, io.ErrUnexpectedEOF
}

func (f *fakeFileStorage) Exists(path string) bool {
	_, ok := f.saved[path]
	return ok
}

func (f *fakeFileStorage) Remove(path string) error {
	delete(f.saved, path)
	f.removed = append(f.removed, path)
	return nil
}

type fakeJobQueue struct {
	enqueued []string
	runs     []workers.JobFunc
	progress map[string]models.JobProgress
}

func newFakeJobQueue() *fakeJobQueue {
	return &fakeJobQueue{progress: make(map[string]models.JobProgress)}
}

func (f *fakeJobQueue) Enqueue(jobID string, run workers.JobFunc) error {
	f.enqueued = append(f.enqueued, jobID)
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeJobQueue) Progress(jobID string) models.JobProgress {
	progress, ok := f.progress[jobID]
	if !ok {
		return models.JobProgress{JobID: jobID, State: models.JobStatePending}
	}
	return progress
}

type fakeIngest struct {
	run func(ctx context.Context, databaseID int64, report func(models.JobProgress)) error
}

func (f *fakeIngest) Run(ctx context.Context, databaseID int64, report func(models.JobProgress)) error {
	return f.run(ctx, databaseID, report)
}
