package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/lambda-search/internal/format"
	"github.com/MKhiriev/lambda-search/internal/service"
	"github.com/MKhiriev/lambda-search/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrEmptyQuery:              http.StatusBadRequest,
	service.ErrNameTooLong:             http.StatusBadRequest,
	service.ErrHistoryTooLong:          http.StatusBadRequest,
	service.ErrWrongPassword:           http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrIngestionRunning:        http.StatusConflict,
	service.ErrAlreadyEncrypted:        http.StatusConflict,

	format.ErrUnsupportedFormat: http.StatusBadRequest,
	format.ErrInvalidFormat:     http.StatusBadRequest,

	store.ErrLoginAlreadyExists: http.StatusConflict,
	store.ErrDatabaseNameExists: http.StatusConflict,
	store.ErrNoUserWasFound:     http.StatusNotFound,
	store.ErrDatabaseNotFound:   http.StatusNotFound,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrPreparingStatement:   http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
