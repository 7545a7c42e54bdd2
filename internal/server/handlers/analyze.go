package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vibecheck/vibecheck/internal/analyzer"
	apperrors "github.com/vibecheck/vibecheck/internal/errors"
	"github.com/vibecheck/vibecheck/internal/metrics"
	"github.com/vibecheck/vibecheck/internal/tmdb"
)

// NewAnalyzeHandler serves GET /analyze?title=<movie title>.
func NewAnalyzeHandler(a *analyzer.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := strings.TrimSpace(r.URL.Query().Get("title"))
		if title == "" {
			respondWithError(w, r, apperrors.NewInvalidInputError("Query parameter 'title' is required"))
			return
		}

		if a == nil {
			respondWithError(w, r, apperrors.NewInternalError("Analyzer not configured"))
			return
		}

		started := time.Now()
		result, err := a.Analyze(r.Context(), title)
		provider := ""
		if a.Driver != nil {
			provider = a.Driver.Name()
		}
		metrics.RecordAnalysis(provider, err == nil, time.Since(started))

		if err != nil {
			switch {
			case errors.Is(err, tmdb.ErrMovieNotFound):
				respondWithError(w, r, apperrors.WrapNotFound(r.Context(), err, "Movie not found"))
			case errors.Is(err, tmdb.ErrRateLimited):
				respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "Upstream rate limit reached, try again shortly"))
			default:
				respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "Vibe analysis failed"))
			}
			return
		}

		if result.Provenance != nil && result.Provenance.FromCache {
			metrics.RecordCacheHit()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(result)
	}
}
