package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "page", "error": "must be a positive integer" }
type FieldError struct {
	// Field is the field name/key the error relates to (e.g. "perPage").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// HTTPError is the main custom error type for API responses.
//
// It implements the `error` interface via Error().
// It is designed to be serialized directly to JSON.
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message (e.g. "Listing not found").
//   - Status: HTTP status code.
//   - Detail: text of the underlying error, serialized as "error".
//   - Errors: list of per-field errors (validation).
//
// Only the text of the underlying error is exposed, never the error value
// itself: driver error structs do not serialize to anything useful.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`

	// Detail is the message of the error that caused this response.
	Detail string `json:"error,omitempty"`

	// Errors holds field-level validation errors.
	Errors []FieldError `json:"errors,omitempty"`

	// cause is kept for logging and errors.Unwrap; it is never serialized.
	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
//
// It returns the Message, so printing/logging the error shows the message.
// When there is a cause its text is appended.
func (e *HTTPError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is customizes how errors.Is(...) treats HTTPError.
//
// It returns true if `target` is also a *HTTPError. It does NOT compare
// Code/Status; it only checks for the same type.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a *copy* of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Detail:  e.Detail,
		Errors:  e.Errors,
		cause:   e.cause,
	}
}

// Redacted returns a copy with Detail removed, used when the server must not
// expose internal error text (production).
func (e *HTTPError) Redacted() *HTTPError {
	c := e.WithMessage(e.Message)
	c.Detail = ""
	return c
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
