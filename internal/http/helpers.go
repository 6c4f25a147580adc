package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"debikan/internal/core"
	applog "debikan/internal/log"
	"debikan/internal/middleware/trace"
)

// maxBodyBytes bounds request bodies; every payload here is a few fields.
const maxBodyBytes = 16 << 10

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and writes it as JSON.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	writeJSON(w, status, errorResponse{
		Error:     errorMessage(r, status, err),
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// errorMessage is the client facing text of err. Server side failures are
// logged with the request logger and reduced to their category so store
// details do not leak.
func errorMessage(r *http.Request, status int, err error) string {
	if status < 500 {
		return err.Error()
	}
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		applog.FieldPath, r.URL.Path, applog.FieldError, err)
	return publicMessage(err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrEmptyAccount),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrStoreUnavailable):
		return core.ErrStoreUnavailable.Error()
	case errors.Is(err, core.ErrQueryFailure):
		return core.ErrQueryFailure.Error()
	case errors.Is(err, core.ErrWriteFailure):
		return core.ErrWriteFailure.Error()
	default:
		return "internal error"
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", core.ErrNotFound, name, raw)
	}
	return id, nil
}

func pathMonth(r *http.Request) (core.Month, error) {
	return core.ParseMonth(r.PathValue("month"))
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func queryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
