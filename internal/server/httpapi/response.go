package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// writeError maps the error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is a 500 with a generic message; details stay in the log.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		status  int
		message string
	)

	switch {
	case errors.Is(err, common.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		status, message = http.StatusUnauthorized, "token is invalid or expired"
	case errors.Is(err, common.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrNotFound):
		status, message = http.StatusNotFound, "user does not exist"
	case errors.Is(err, common.ErrConflict):
		status, message = http.StatusConflict, "user with email or username already exists"
	default:
		status, message = http.StatusInternalServerError, "internal server error"
		s.logger.Error(ctx, "request failed", "error", err)
	}

	s.writeJSON(w, status, nil, message)
}

// validationError decorates common.ErrValidation with a field-level message.
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}
