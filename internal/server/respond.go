package server

import (
	"encoding/json"
	"net/http"

	"github.com/permitscope/permitscope/pkg/errors"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes to HTTP statuses. 403 keeps its
// own status so clients can render the access-denied state instead of a
// generic failure banner.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed",
			"error", err, "request_id", RequestID(r.Context()))
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorEnvelope{
		Error: errorBody{Code: string(code), Message: errors.UserMessage(err)},
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSelection,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidDirection:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUserNotFound,
		errors.ErrCodePageNotFound, errors.ErrCodeViewNotFound:
		return http.StatusNotFound
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
