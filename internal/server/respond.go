package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/conneroisu/pagecraft/internal/errors"
)

// maxBodySize bounds request bodies; documents are the largest payload.
const maxBodySize = 8 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type        errors.ErrorType `json:"type"`
	Code        string           `json:"code,omitempty"`
	Message     string           `json:"message"`
	NodeID      string           `json:"nodeId,omitempty"`
	Component   string           `json:"component,omitempty"`
	Recoverable bool             `json:"recoverable"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeStructural:
		return http.StatusConflict
	case errors.ErrorTypePermission:
		return http.StatusForbidden
	case errors.ErrorTypeResolution:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeState:
		return http.StatusLocked
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errors.Handle(r.Context(), err)

	detail := errorDetail{
		Type:        errors.TypeOf(err),
		Message:     err.Error(),
		Recoverable: errors.IsRecoverable(err),
	}
	var ee *errors.EditorError
	if errors.As(err, &ee) {
		detail.Code = ee.Code
		detail.NodeID = ee.NodeID
		detail.Component = ee.Component
	}
	s.writeJSON(w, r, statusFor(err), errorBody{Error: detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode response")
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, r *http.Request, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to write response")
	}
}

// decode reads a JSON request body into v. An empty body leaves v as is.
func decode(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, errors.NewValidationError("reading request body", err)
	}
	if len(body) > maxBodySize {
		return nil, errors.NewValidationError("request body too large", nil)
	}
	return body, nil
}
