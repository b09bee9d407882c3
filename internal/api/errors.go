package api

import (
	"errors"
	"net/http"

	"github.com/kjannette/maichez-backend/internal/assistant"
	"github.com/kjannette/maichez-backend/internal/dataurl"
	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/repository"
)

// writeFailure maps known errors to client statuses. Anything else is
// logged and reported as "failed to <action>".
func writeFailure(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, assistant.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, assistant.ErrBusy), errors.Is(err, assistant.ErrNoDraft):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dataurl.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, dataurl.ErrMalformed), errors.Is(err, dataurl.ErrNotImage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorWithErr(r.Context(), "Failed to "+action, err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
