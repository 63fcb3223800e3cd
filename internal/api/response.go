package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwien/CIfly/internal/engine"
	"github.com/mwien/CIfly/internal/procedure"
	"github.com/mwien/CIfly/internal/ruletable"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// compileErrorResponse adds the location of a rule-table compile error.
type compileErrorResponse struct {
	Error string `json:"error"`
	Line  int    `json:"line"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine errors to status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var ce *ruletable.CompileError
	if errors.As(err, &ce) {
		writeCompileError(w, err)
		return
	}
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var qe *engine.QueryError
	switch {
	case errors.Is(err, engine.ErrUnknownTable), errors.Is(err, procedure.ErrUnknown):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &qe):
		if qe.Stage == engine.StageInput {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
