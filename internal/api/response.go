package api

import (
	"encoding/json"
	"net/http"

	"startup-intake/internal/common/errors"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code      errors.ErrorCode `json:"code"`
	Details   string           `json:"details,omitempty"`
	Retryable bool             `json:"retryable"`
	RequestID string           `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError renders err through its StandardError code. Anything else is an
// internal error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	stdErr, ok := errors.As(err)
	if !ok {
		stdErr = errors.NewInternalError(err)
	}

	body := envelope{
		Success: false,
		Message: message,
		Error: &errorBody{
			Code:      stdErr.Code,
			Details:   stdErr.Details,
			Retryable: stdErr.Retryable,
			RequestID: RequestID(r.Context()),
		},
	}

	switch stdErr.Code {
	case errors.ErrCodeApplicationValidationFailed:
		body.Message = "Validation failed"
		body.Errors = stdErr.Metadata["fields"]
	case errors.ErrCodeApplicationNotFound:
		body.Message = "Startup application not found"
	}

	status := stdErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		// internals stay in the log
		body.Error.Details = ""
		h.logger.Error(message, map[string]interface{}{
			"requestId": RequestID(r.Context()),
			"code":      string(stdErr.Code),
			"error":     err.Error(),
		})
	}
	writeJSON(w, status, body)
}
