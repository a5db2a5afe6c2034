package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"magit/apperror"
	"magit/logger"
)

const maxBodyBytes = 1 << 20

type errorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError renders err as the JSON error envelope. Server-side failures are
// logged with their cause; the cause is never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("code", appErr.Code).
			Msg("request failed")
	}

	payload := errorPayload{Code: appErr.Code, Message: appErr.Message}
	if len(appErr.Details) > 0 {
		payload.Details = appErr.Details
	}
	writeJSON(w, appErr.StatusCode, errorResponse{Error: payload})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ErrBadRequest.WithMessage("request body is required")
		}
		return apperror.ErrBadRequest.WithMessage("invalid JSON body").WithError(err)
	}
	return nil
}
