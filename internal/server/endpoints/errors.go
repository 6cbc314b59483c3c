package endpoints

import (
	"errors"
	"net/http"

	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/ingest"
	"github.com/jackzampolin/kbase/internal/jobs"
	"github.com/jackzampolin/kbase/internal/lifecycle"
	"github.com/jackzampolin/kbase/internal/schema"
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, documents.ErrInvalid),
		errors.Is(err, schema.ErrInvalid),
		errors.Is(err, jobs.ErrInvalidChunking),
		errors.Is(err, ingest.ErrUnsupportedType),
		errors.Is(err, ingest.ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, documents.ErrConflict),
		errors.Is(err, documents.ErrStaleRun),
		errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, documents.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status statusFor picks.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
