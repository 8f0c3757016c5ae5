package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/session"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
)

// ErrNotLoopback indicates a listen address that is not a loopback address.
var ErrNotLoopback = errors.New("listen address is not loopback")

// Error codes returned in error bodies.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNothingToSubmit  = "NOTHING_TO_SUBMIT"
	CodeBusy             = "BUSY"
	CodeIncompleteConfig = "INCOMPLETE_CONFIG"
	CodeCanceled         = "CANCELED"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func sendError(w http.ResponseWriter, status int, code, message string) {
	sendJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// classify maps an error to its HTTP status and code.
func classify(err error) (int, string) {
	var provErr *provider.Error
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, CodeBusy
	case errors.Is(err, session.ErrNothingToSubmit):
		return http.StatusBadRequest, CodeNothingToSubmit
	case provider.IsConfigError(err):
		return http.StatusPreconditionFailed, CodeIncompleteConfig
	case errors.Is(err, settings.ErrInvalidSettings):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, CodeCanceled
	case errors.As(err, &provErr):
		return http.StatusBadGateway, CodeUpstream
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func sendErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	sendJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   err.Error(),
		Retryable: provider.IsRetryable(err),
	})
}
