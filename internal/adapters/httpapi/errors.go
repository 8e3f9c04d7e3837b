package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

var errPageNotFound = fmt.Errorf("page not found: %w", ports.ErrNotFound)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status, error kind and client-facing message.
func classify(err error) (int, string, string) {
	var vErr *ports.ValidationError
	var posErr *ports.InsufficientPositionError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, "InvalidInputError", vErr.Error()
	case errors.As(err, &posErr):
		return http.StatusBadRequest, "InsufficientPositionError", posErr.Error()
	case errors.Is(err, ports.ErrValidation):
		return http.StatusBadRequest, "InvalidInputError", err.Error()
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, "APIError", "Page Not Found"
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests, "APIError", "Too many requests, please try again later."
	case errors.Is(err, ports.ErrOracleUnavailable):
		return http.StatusBadGateway, "PriceOracleError", "Unable to fetch market prices"
	case errors.Is(err, ports.ErrPersistence):
		return http.StatusInternalServerError, "InternalServerError", ports.ErrPersistence.Error()
	default:
		return http.StatusInternalServerError, "InternalServerError", "Internal Server Error"
	}
}

// writeError logs err with its classification and renders the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, message := classify(err)

	fields := ports.Fields{
		"method": r.Method,
		"url":    r.URL.String(),
		"status": status,
		"kind":   kind,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", fields)
	} else {
		fields["error"] = err.Error()
		s.logger.Warn(r.Context(), "Request rejected", fields)
	}

	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// decodeError turns a JSON decoding failure into a validation error naming the field when possible.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		return ports.NewValidationError(typeErr.Field, fmt.Sprintf("Invalid input: expected %s, received %s", jsonKind(typeErr.Type.Kind().String()), typeErr.Value))
	case errors.As(err, &maxErr):
		return ports.NewValidationError("body", "Request body too large")
	case errors.Is(err, io.EOF):
		return ports.NewValidationError("body", "Request body is required")
	default:
		return ports.NewValidationError("body", "Malformed JSON body")
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "string"
	case "int", "int64", "float64":
		return "number"
	default:
		return goKind
	}
}
