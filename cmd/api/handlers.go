package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	importservice "github.com/dinarly/dinarly-api/internal/domain/import/service"
	"github.com/dinarly/dinarly-api/internal/domain/ratelimit"
	"github.com/dinarly/dinarly-api/internal/domain/security"
	"github.com/dinarly/dinarly-api/internal/domain/statement"
)

// maxUploadBytes caps the request body read; the validator enforces the
// real content limit with an audit trail.
const maxUploadBytes = 16 << 20

type correctionRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /v1/users/{user_id}/imports", throttled(deps.RequestLimiter, handleImport(deps, false)))
	mux.HandleFunc("POST /v1/users/{user_id}/imports/xlsx", throttled(deps.RequestLimiter, handleImport(deps, true)))
	mux.HandleFunc("POST /v1/users/{user_id}/corrections", throttled(deps.RequestLimiter, handleCorrection(deps)))
	mux.HandleFunc("POST /v1/users/{user_id}/exports", throttled(deps.RequestLimiter, handleExport(deps)))

	return mux
}

// throttled rejects requests over the per-user request budget. It wraps the
// routed handler so the user_id path value is already populated; requests
// with an unparseable id share the zero-UUID bucket.
func throttled(limiter *ratelimit.RequestLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := uuid.Parse(r.PathValue("user_id"))
		if !limiter.Allow(userID) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func handleImport(deps *Dependencies, xlsx bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		var result *importservice.ImportResult
		if xlsx {
			result, err = deps.ImportService.ImportWorkbook(r.Context(), userID, body)
		} else {
			result, err = deps.ImportService.ImportStatement(r.Context(), userID, string(body))
		}
		if err != nil {
			status := importErrorStatus(err)
			deps.Logger.Warn("import rejected",
				slog.String("user_id", userID.String()),
				slog.Int("status", status),
				slog.Any("error", err),
			)
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleCorrection(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var req correctionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.Description == "" || req.Category == "" {
			writeError(w, http.StatusBadRequest, "description and category are required")
			return
		}

		if err := deps.ImportService.LearnCorrection(r.Context(), userID, req.Description, req.Category); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save correction")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleExport(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		csv, err := deps.ImportService.ExportStatement(r.Context(), userID, string(body))
		if err != nil {
			writeError(w, importErrorStatus(err), err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="statement.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, csv)
	}
}

func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, security.ErrContentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, security.ErrMaliciousContent),
		errors.Is(err, security.ErrTooManyLines),
		errors.Is(err, statement.ErrHeaderNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
