package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The core error taxonomy. Every failure either returns one of these to
// the caller or transitions a document to failed with a recorded
// reason; nothing is silently swallowed.

// ValidationError marks bad or unsupported input, e.g. an unknown model
// selector. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError means no ready document matched the request. Ambiguous
// matches and mid-ingestion documents are reported the same way.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ServiceFailure means a downstream provider (embedding or generation)
// failed. Cause carries the upstream message; credentials and stack
// detail never reach the caller.
type ServiceFailure struct {
	Cause string
}

func (e *ServiceFailure) Error() string { return e.Cause }

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }
func NewNotFound(msg string) error        { return &NotFoundError{Msg: msg} }
func NewServiceFailure(cause string) error {
	return &ServiceFailure{Cause: cause}
}

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response.
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error.
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error.
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error.
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// WriteError maps a taxonomy error onto the HTTP response; anything
// outside the taxonomy becomes a 500.
func WriteError(c *gin.Context, err error) {
	var ve *ValidationError
	var nf *NotFoundError
	var sf *ServiceFailure
	switch {
	case errors.As(err, &ve):
		RespondWithError(c, http.StatusBadRequest, "validation_error", ve.Msg, nil)
	case errors.As(err, &nf):
		RespondWithError(c, http.StatusNotFound, "not_found", nf.Msg, nil)
	case errors.As(err, &sf):
		RespondWithError(c, http.StatusBadGateway, "service_failure", sf.Cause, nil)
	default:
		RespondWithInternalError(c, "An unexpected error occurred", nil)
	}
}
