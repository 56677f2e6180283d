package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/agrorisk/pkg/api/middleware"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/source"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// respondJSON encodes data before writing the header, so a value JSON cannot
// represent becomes a 500 instead of a truncated 200.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{
			Error:   http.StatusText(status),
			Message: "Falha ao serializar a resposta",
			Code:    status,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// statusFor maps an analysis error to its HTTP status and the message safe
// to show the client.
func statusFor(err error) (int, string) {
	switch {
	case validation.IsValidationError(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, source.ErrInvestigationNotFound):
		return http.StatusNotFound, "Investigação não encontrada"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "A análise excedeu o tempo limite"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "A análise foi interrompida"
	default:
		return http.StatusInternalServerError, "Falha ao executar a análise"
	}
}

func (s *Server) respondAnalysisError(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	status, message := statusFor(err)
	fields := []logging.Field{
		logging.RequestID(middleware.GetRequestID(r.Context())),
		logging.Operation(op),
		logging.InvestigationID(id),
		logging.Int("status", status),
		logging.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("analysis request failed", fields...)
	} else {
		s.logger.Warn("analysis request rejected", fields...)
	}
	s.respondError(w, status, message)
}
