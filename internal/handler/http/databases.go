package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/utils"
	"github.com/MKhiriev/lambda-search/models"
)

// maxUploadMemory caps how much of a multipart dump upload is buffered in
// memory before spilling to disk.
const maxUploadMemory = 32 << 20

func (h *Handler) uploadDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		log.Err(err).Str("func", "*Handler.uploadDatabase").Msg("invalid multipart form")
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Err(err).Str("func", "*Handler.uploadDatabase").Msg("missing dump file")
		http.Error(w, "missing dump file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	upload := models.DatabaseUpload{
		Name:     r.FormValue("name"),
		History:  r.FormValue("history"),
		FileName: header.Filename,
	}

	database, err := h.services.DatabaseService.Upload(r.Context(), upload, file)
	if err != nil {
		log.Err(err).Str("func", "*Handler.uploadDatabase").Msg("error registering database")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, database, http.StatusCreated); err != nil {
		log.Err(err).Str("func", "*Handler.uploadDatabase").Msg("error writing response")
	}
}

func (h *Handler) listDatabases(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	databases, err := h.services.DatabaseService.List(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.listDatabases").Msg("error listing databases")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, databases, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.listDatabases").Msg("error writing response")
	}
}

func (h *Handler) getDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := parseDatabaseID(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getDatabase").Msg("invalid database id")
		http.Error(w, "invalid database id", http.StatusBadRequest)
		return
	}

	database, err := h.services.DatabaseService.Get(r.Context(), id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getDatabase").Msg("error loading database")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, database, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.getDatabase").Msg("error writing response")
	}
}

func (h *Handler) updateDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := parseDatabaseID(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateDatabase").Msg("invalid database id")
		http.Error(w, "invalid database id", http.StatusBadRequest)
		return
	}

	var update models.DatabaseUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Err(err).Str("func", "*Handler.updateDatabase").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	update.ID = id

	if err := h.services.DatabaseService.Update(r.Context(), update); err != nil {
		log.Err(err).Str("func", "*Handler.updateDatabase").Msg("error updating database")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) deleteDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := parseDatabaseID(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.deleteDatabase").Msg("invalid database id")
		http.Error(w, "invalid database id", http.StatusBadRequest)
		return
	}

	if err := h.services.DatabaseService.Delete(r.Context(), id); err != nil {
		log.Err(err).Str("func", "*Handler.deleteDatabase").Msg("error deleting database")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reingestDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := parseDatabaseID(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.reingestDatabase").Msg("invalid database id")
		http.Error(w, "invalid database id", http.StatusBadRequest)
		return
	}

	database, err := h.services.DatabaseService.Reingest(r.Context(), id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.reingestDatabase").Msg("error restarting ingestion")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, database, http.StatusAccepted); err != nil {
		log.Err(err).Str("func", "*Handler.reingestDatabase").Msg("error writing response")
	}
}

func (h *Handler) previewDatabase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := parseDatabaseID(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.previewDatabase").Msg("invalid database id")
		http.Error(w, "invalid database id", http.StatusBadRequest)
		return
	}

	rows := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		rows, err = strconv.Atoi(raw)
		if err != nil || rows < 0 {
			log.Error().Str("func", "*Handler.previewDatabase").Str("n", raw).Msg("invalid preview row count")
			http.Error(w, "invalid preview row count", http.StatusBadRequest)
			return
		}
	}

	preview, err := h.services.DatabaseService.Preview(r.Context(), id, rows)
	if err != nil {
		log.Err(err).Str("func", "*Handler.previewDatabase").Msg("error building preview")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, preview, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.previewDatabase").Msg("error writing response")
	}
}

func (h *Handler) jobProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		log.Error().Str("func", "*Handler.jobProgress").Msg("empty job id")
		http.Error(w, "empty job id", http.StatusBadRequest)
		return
	}

	progress := h.services.DatabaseService.Progress(r.Context(), jobID)

	if _, err := utils.WriteJSON(w, progress, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.jobProgress").Msg("error writing response")
	}
}

func parseDatabaseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return 0, errors.New("empty database id")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("database id must be a positive integer")
	}

	return id, nil
}
