// Package errors defines the error taxonomy shared by the pipeline layers and
// the transport. Layers return plain Go errors; this package classifies them
// so the transport can render a consistent error response.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Standard error kinds
var (
	ErrTimeout     = errors.New("timeout error")
	ErrRateLimit   = errors.New("rate limit error")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("unavailable error")
	ErrInternal    = errors.New("internal error")
)

// kind describes how one error kind is presented to clients
type kind struct {
	base      error
	label     string
	status    int
	retryable bool
}

// kinds is checked in order; the first match classifies an error
var kinds = []kind{
	{base: ErrTimeout, label: "timeout", status: http.StatusServiceUnavailable, retryable: true},
	{base: ErrRateLimit, label: "rate_limit", status: http.StatusTooManyRequests, retryable: true},
	{base: ErrValidation, label: "validation", status: http.StatusBadRequest},
	{base: ErrUnavailable, label: "unavailable", status: http.StatusServiceUnavailable, retryable: true},
}

var internalKind = kind{base: ErrInternal, label: "internal", status: http.StatusInternalServerError}

func classify(err error) kind {
	for _, k := range kinds {
		if errors.Is(err, k.base) {
			return k
		}
	}
	return internalKind
}

// errorType is an error of a specific kind
type errorType struct {
	baseErr   error
	msg       string
	cause     error
	details   map[string]interface{}
	retryable bool
}

// ErrorWithDetails is implemented by errors that carry structured details
type ErrorWithDetails interface {
	Error() string
	Details() map[string]interface{}
}

func newError(base error, msg string, cause error) *errorType {
	return &errorType{baseErr: base, msg: msg, cause: cause, retryable: classify(base).retryable}
}

// Error renders "<kind>: <msg>", then any details and cause
func (e *errorType) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.baseErr.Error())
	b.WriteString(": ")
	b.WriteString(e.msg)

	if len(e.details) > 0 {
		if encoded, err := json.Marshal(e.details); err == nil {
			b.WriteString(" - details: ")
			b.Write(encoded)
		}
	}
	if e.cause != nil {
		b.WriteString(" - caused by: ")
		b.WriteString(e.cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause of the error
func (e *errorType) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether the error is of the specified kind
func (e *errorType) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	return errors.Is(e.baseErr, target)
}

// Details returns the attached details
func (e *errorType) Details() map[string]interface{} {
	if e == nil {
		return nil
	}
	return e.details
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(msg string) error {
	return newError(ErrTimeout, msg, nil)
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(msg string) error {
	return newError(ErrRateLimit, msg, nil)
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return newError(ErrValidation, msg, nil)
}

// NewUnavailableError creates a retryable error for a dependency or handler
// that cannot take work right now
func NewUnavailableError(msg string, cause error) error {
	return newError(ErrUnavailable, msg, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(msg string) error {
	return newError(ErrInternal, msg, nil)
}

// Wrap prefixes msg onto err. Errors from this package keep their kind;
// anything else becomes an internal error with err as its cause.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}

	e, ok := err.(*errorType)
	if !ok {
		return newError(ErrInternal, msg, err)
	}

	wrapped := *e
	wrapped.msg = msg + ": " + e.msg
	return &wrapped
}

// WithDetails returns err with details attached, replacing any it had
func WithDetails(err error, details map[string]interface{}) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*errorType); ok {
		withDetails := *e
		withDetails.details = details
		return &withDetails
	}

	e := newError(ErrInternal, err.Error(), nil)
	e.details = details
	return e
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	return err != nil && errors.Is(err, ErrTimeout)
}

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool {
	return err != nil && errors.Is(err, ErrRateLimit)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return err != nil && errors.Is(err, ErrValidation)
}

// IsUnavailableError checks if the error is an unavailable error
func IsUnavailableError(err error) bool {
	return err != nil && errors.Is(err, ErrUnavailable)
}

// IsRetryable reports whether a client may retry. Errors from this package
// carry their own flag; foreign errors such as a wrapped timeout are judged
// by the kind they match.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var e *errorType
	if errors.As(err, &e) {
		return e.retryable
	}
	return classify(err).retryable
}

// GetDetails returns error details if available, nil otherwise
func GetDetails(err error) map[string]interface{} {
	if detailed, ok := err.(ErrorWithDetails); ok {
		return detailed.Details()
	}
	return nil
}

// ErrorResponse is the JSON body the transport writes for a failed call
type ErrorResponse struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	ErrorType string                 `json:"error_type"`
	Retryable bool                   `json:"retryable,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToErrorResponse converts an error to a standardized ErrorResponse
func ToErrorResponse(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{
			Status:  "error",
			Message: "Unknown error",
		}
	}

	return ErrorResponse{
		Status:    "error",
		Message:   err.Error(),
		ErrorType: classify(err).label,
		Retryable: IsRetryable(err),
		Details:   GetDetails(err),
	}
}

// HTTPStatus maps an error to the status code the transport responds with
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return classify(err).status
}
