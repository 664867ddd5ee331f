package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/utils"
	"github.com/MKhiriev/lambda-search/models"
)

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		log.Error().Str("func", "*Handler.search").Msg("no user id in request context")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Str("func", "*Handler.search").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	results, err := h.services.SearchService.Search(r.Context(), userID, request.Query)
	if err != nil {
		log.Err(err).Str("func", "*Handler.search").Msg("error executing search")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, results, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.search").Msg("error writing search results")
	}
}

func (h *Handler) searchHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		log.Error().Str("func", "*Handler.searchHistory").Msg("no user id in request context")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	history, err := h.services.SearchService.History(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.searchHistory").Msg("error loading query history")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if _, err := utils.WriteJSON(w, history, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.searchHistory").Msg("error writing query history")
	}
}
