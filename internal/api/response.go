package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/movitransit/movi/internal/log"
)

// Stable error codes used in the error envelope.
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeRateLimited    = "rate_limited"
	codeUnavailable    = "unavailable"
	codeInternal       = "internal_error"
)

// maxRequestBody caps JSON and audio request bodies. Voice clips from the
// mic button stay well under this.
const maxRequestBody = 10 << 20 // 10 MiB

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeJSON marshals v into a buffer before touching the ResponseWriter,
// so a marshal failure can still produce a clean 500 instead of a
// half-written body.
func writeJSON(w http.ResponseWriter, status int, v any, logger log.Logger) {
	buf, err := json.Marshal(v)
	if err != nil {
		logger.Error("marshaling response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":{"code":%q,"message":"failed to encode response"}}`, codeInternal)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	if _, err := w.Write(buf); err != nil {
		logger.Debug("writing response", "error", err)
	}
}

// writeData wraps v in the success envelope.
func writeData(w http.ResponseWriter, status int, v any, logger log.Logger) {
	writeJSON(w, status, dataEnvelope{Data: v}, logger)
}

// writeError writes the error envelope. Message is operator-facing; keep
// internals out of it.
func writeError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}}, logger)
}

// writeErrorDetails is writeError with a structured payload attached,
// used where the client needs more than prose (the removal consequence).
func writeErrorDetails(w http.ResponseWriter, status int, code, message string, details any, logger log.Logger) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message, Details: details}}, logger)
}

// decodeJSON reads a capped request body into dst. Unknown fields are
// rejected so client typos surface as 400s instead of silent defaults.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseIntParam reads an integer query parameter, falling back to def
// when absent. Negative values and junk are errors.
func parseIntParam(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	if n < 0 {
		return 0, fmt.Errorf("parameter %q must not be negative", name)
	}
	return int32(n), nil
}
