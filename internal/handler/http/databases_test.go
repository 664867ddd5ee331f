package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/lambda-search/internal/format"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/service"
	"github.com/MKhiriev/lambda-search/internal/store"
	"github.com/MKhiriev/lambda-search/models"
)

// mockDatabaseService implements service.DatabaseService for unit tests.
type mockDatabaseService struct {
	uploadFn   func(ctx context.Context, upload models.DatabaseUpload, src io.Reader) (models.ManagedDatabase, error)
	reingestFn func(ctx context.Context, id int64) (models.ManagedDatabase, error)
	getFn      func(ctx context.Context, id int64) (models.ManagedDatabase, error)
	listFn     func(ctx context.Context) ([]models.ManagedDatabase, error)
	updateFn   func(ctx context.Context, update models.DatabaseUpdate) error
	deleteFn   func(ctx context.Context, id int64) error
	previewFn  func(ctx context.Context, id int64, rows int) (map[string]format.Preview, error)
	progressFn func(ctx context.Context, jobID string) models.JobProgress
}

func (m *mockDatabaseService) Upload(ctx context.Context, upload models.DatabaseUpload, src io.Reader) (models.ManagedDatabase, error) {
	return m.uploadFn(ctx, upload, src)
}

func (m *mockDatabaseService) Reingest(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	return m.reingestFn(ctx, id)
}

func (m *mockDatabaseService) Get(ctx context.Context, id int64) (models.ManagedDatabase, error) {
	return m.getFn(ctx, id)
}

func (m *mockDatabaseService) List(ctx context.Context) ([]models.ManagedDatabase, error) {
	return m.listFn(ctx)
}

func (m *mockDatabaseService) Update(ctx context.Context, update models.DatabaseUpdate) error {
	return m.updateFn(ctx, update)
}

func (m *mockDatabaseService) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockDatabaseService) Preview(ctx context.Context, id int64, rows int) (map[string]format.Preview, error) {
	return m.previewFn(ctx, id, rows)
}

func (m *mockDatabaseService) Progress(ctx context.Context, jobID string) models.JobProgress {
	return m.progressFn(ctx, jobID)
}

func newHandlerWithDatabases(t *testing.T, databases service.DatabaseService) *Handler {
	t.Helper()
	return NewHandler(&service.Services{DatabaseService: databases}, logger.Nop())
}

// withURLParam attaches a chi route parameter to the request so handlers can
// be exercised without a full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartUpload builds a multipart body with name, history and file fields.
func multipartUpload(t *testing.T, name, history, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("history", history))

	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadDatabase_Success(t *testing.T) {
	var gotUpload models.DatabaseUpload
	var gotContent []byte

	databases := &mockDatabaseService{
		uploadFn: func(_ context.Context, upload models.DatabaseUpload, src io.Reader) (models.ManagedDatabase, error) {
			gotUpload = upload
			var err error
			gotContent, err = io.ReadAll(src)
			require.NoError(t, err)
			return models.ManagedDatabase{ID: 1, Name: upload.Name, JobID: "job-1"}, nil
		},
	}

	body, contentType := multipartUpload(t, "collection-1", "leaked in 2019", "dump.csv", "email,password\na@b.c,hunter2\n")

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodPost, "/api/databases", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.uploadDatabase(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "collection-1", gotUpload.Name)
	assert.Equal(t, "leaked in 2019", gotUpload.History)
	assert.Equal(t, "dump.csv", gotUpload.FileName)
	assert.Equal(t, "email,password\na@b.c,hunter2\n", string(gotContent))

	var got models.ManagedDatabase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-1", got.JobID)
}

func TestUploadDatabase_MissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "collection-1"))
	require.NoError(t, mw.Close())

	h := newHandlerWithDatabases(t, &mockDatabaseService{})
	req := httptest.NewRequest(http.MethodPost, "/api/databases", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.uploadDatabase(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing dump file")
}

func TestUploadDatabase_NotMultipart(t *testing.T) {
	h := newHandlerWithDatabases(t, &mockDatabaseService{})
	req := httptest.NewRequest(http.MethodPost, "/api/databases", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.uploadDatabase(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDatabase_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "duplicate name", err: store.ErrDatabaseNameExists, wantStatus: http.StatusConflict},
		{name: "unsupported format", err: format.ErrUnsupportedFormat, wantStatus: http.StatusBadRequest},
		{name: "invalid data", err: service.ErrInvalidDataProvided, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			databases := &mockDatabaseService{
				uploadFn: func(_ context.Context, _ models.DatabaseUpload, _ io.Reader) (models.ManagedDatabase, error) {
					return models.ManagedDatabase{}, tt.err
				},
			}

			body, contentType := multipartUpload(t, "collection-1", "", "dump.csv", "a,b\n")

			h := newHandlerWithDatabases(t, databases)
			req := httptest.NewRequest(http.MethodPost, "/api/databases", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.uploadDatabase(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetDatabase_Success(t *testing.T) {
	databases := &mockDatabaseService{
		getFn: func(_ context.Context, id int64) (models.ManagedDatabase, error) {
			require.Equal(t, int64(5), id)
			return models.ManagedDatabase{ID: 5, Name: "alpha", Active: true}, nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodGet, "/api/databases/5", nil)
	req = withURLParam(req, "id", "5")
	rec := httptest.NewRecorder()

	h.getDatabase(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ManagedDatabase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alpha", got.Name)
}

func TestGetDatabase_NotFound(t *testing.T) {
	databases := &mockDatabaseService{
		getFn: func(_ context.Context, _ int64) (models.ManagedDatabase, error) {
			return models.ManagedDatabase{}, store.ErrDatabaseNotFound
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodGet, "/api/databases/999", nil)
	req = withURLParam(req, "id", "999")
	rec := httptest.NewRecorder()

	h.getDatabase(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDatabase_InvalidID(t *testing.T) {
	tests := []string{"abc", "0", "-1", ""}

	for _, raw := range tests {
		t.Run("id="+raw, func(t *testing.T) {
			h := newHandlerWithDatabases(t, &mockDatabaseService{})
			req := httptest.NewRequest(http.MethodGet, "/api/databases/x", nil)
			req = withURLParam(req, "id", raw)
			rec := httptest.NewRecorder()

			h.getDatabase(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListDatabases_Success(t *testing.T) {
	databases := &mockDatabaseService{
		listFn: func(_ context.Context) ([]models.ManagedDatabase, error) {
			return []models.ManagedDatabase{{ID: 1, Name: "alpha"}, {ID: 2, Name: "beta"}}, nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodGet, "/api/databases", nil)
	rec := httptest.NewRecorder()

	h.listDatabases(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.ManagedDatabase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Name)
}

func TestUpdateDatabase_Success(t *testing.T) {
	var gotUpdate models.DatabaseUpdate
	databases := &mockDatabaseService{
		updateFn: func(_ context.Context, update models.DatabaseUpdate) error {
			gotUpdate = update
			return nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodPatch, "/api/databases/3", strings.NewReader(`{"name":"renamed","active":false}`))
	req = withURLParam(req, "id", "3")
	rec := httptest.NewRecorder()

	h.updateDatabase(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gotUpdate.ID)
	require.NotNil(t, gotUpdate.Name)
	assert.Equal(t, "renamed", *gotUpdate.Name)
	require.NotNil(t, gotUpdate.Active)
	assert.False(t, *gotUpdate.Active)
	assert.Nil(t, gotUpdate.History)
}

func TestUpdateDatabase_DuplicateName(t *testing.T) {
	databases := &mockDatabaseService{
		updateFn: func(_ context.Context, _ models.DatabaseUpdate) error {
			return store.ErrDatabaseNameExists
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodPatch, "/api/databases/3", strings.NewReader(`{"name":"taken"}`))
	req = withURLParam(req, "id", "3")
	rec := httptest.NewRecorder()

	h.updateDatabase(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteDatabase_Success(t *testing.T) {
	var deletedID int64
	databases := &mockDatabaseService{
		deleteFn: func(_ context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodDelete, "/api/databases/8", nil)
	req = withURLParam(req, "id", "8")
	rec := httptest.NewRecorder()

	h.deleteDatabase(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(8), deletedID)
}

func TestReingestDatabase_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "already encrypted", err: service.ErrAlreadyEncrypted},
		{name: "ingestion running", err: service.ErrIngestionRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			databases := &mockDatabaseService{
				reingestFn: func(_ context.Context, _ int64) (models.ManagedDatabase, error) {
					return models.ManagedDatabase{}, tt.err
				},
			}

			h := newHandlerWithDatabases(t, databases)
			req := httptest.NewRequest(http.MethodPost, "/api/databases/4/reingest", nil)
			req = withURLParam(req, "id", "4")
			rec := httptest.NewRecorder()

			h.reingestDatabase(rec, req)

			assert.Equal(t, http.StatusConflict, rec.Code)
		})
	}
}

func TestReingestDatabase_Success(t *testing.T) {
	databases := &mockDatabaseService{
		reingestFn: func(_ context.Context, id int64) (models.ManagedDatabase, error) {
			return models.ManagedDatabase{ID: id, JobID: "job-2"}, nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodPost, "/api/databases/4/reingest", nil)
	req = withURLParam(req, "id", "4")
	rec := httptest.NewRecorder()

	h.reingestDatabase(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var got models.ManagedDatabase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-2", got.JobID)
}

func TestPreviewDatabase_Success(t *testing.T) {
	var gotRows int
	databases := &mockDatabaseService{
		previewFn: func(_ context.Context, _ int64, rows int) (map[string]format.Preview, error) {
			gotRows = rows
			return map[string]format.Preview{
				"dump.csv": {
					Columns: []string{"email", "password"},
					Rows:    [][]string{{"a@b.c", "hunter2"}},
				},
			}, nil
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodGet, "/api/databases/2/preview?n=3", nil)
	req = withURLParam(req, "id", "2")
	rec := httptest.NewRecorder()

	h.previewDatabase(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotRows)

	var got map[string]format.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Contains(t, got, "dump.csv")
	assert.Equal(t, []string{"email", "password"}, got["dump.csv"].Columns)
}

func TestPreviewDatabase_InvalidRowCount(t *testing.T) {
	h := newHandlerWithDatabases(t, &mockDatabaseService{})
	req := httptest.NewRequest(http.MethodGet, "/api/databases/2/preview?n=many", nil)
	req = withURLParam(req, "id", "2")
	rec := httptest.NewRecorder()

	h.previewDatabase(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobProgress_Success(t *testing.T) {
	databases := &mockDatabaseService{
		progressFn: func(_ context.Context, jobID string) models.JobProgress {
			return models.JobProgress{JobID: jobID, State: models.JobStateEncrypting, Percent: 40}
		},
	}

	h := newHandlerWithDatabases(t, databases)
	req := httptest.NewRequest(http.MethodGet, "/api/progress/job-1", nil)
	req = withURLParam(req, "jobID", "job-1")
	rec := httptest.NewRecorder()

	h.jobProgress(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.JobProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, models.JobStateEncrypting, got.State)
	assert.Equal(t, 40, got.Percent)
}

func TestJobProgress_EmptyID(t *testing.T) {
	h := newHandlerWithDatabases(t, &mockDatabaseService{})
	req := httptest.NewRequest(http.MethodGet, "/api/progress/", nil)
	req = withURLParam(req, "jobID", "")
	rec := httptest.NewRecorder()

	h.jobProgress(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
