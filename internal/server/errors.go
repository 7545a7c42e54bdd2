package server

import (
	"net/http"

	apperrors "github.com/vibecheck/vibecheck/internal/errors"
)

// HandleError is the central handler for all errors.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
