package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories the API can report.
type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota + 1
	KindForbidden
	KindBadRequest
	KindValidationFailed
	KindNotFound
	KindStorage
	KindTooManyRequests
)

const (
	validationFailedMsg = "Validation failed"
	storageErrorMsg     = "Database error"
)

func (k ErrorKind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest, KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) Code() string {
	switch k {
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindValidationFailed:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStorage:
		return "DATABASE_ERROR"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody is the wire form of every failed response.
type ErrorBody struct {
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Details []FieldError `json:"details,omitempty"`
}

// InternalErrorBody is returned for any failure that is not a ResponseError.
var InternalErrorBody = ErrorBody{
	Message: "Something went wrong",
	Code:    "INTERNAL_SERVER_ERROR",
}

// ResponseError carries a taxonomy kind plus the message shown to the client.
// Err is the underlying cause; it is logged but never serialized.
type ResponseError struct {
	Kind    ErrorKind
	Msg     string
	Details []FieldError
	Err     error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ResponseError) Unwrap() error { return e.Err }

func (e *ResponseError) Status() int { return e.Kind.Status() }

func (e *ResponseError) Body() ErrorBody {
	return ErrorBody{
		Message: e.Msg,
		Code:    e.Kind.Code(),
		Details: e.Details,
	}
}

// AsResponseError reports whether err (or anything it wraps) is a ResponseError.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsKind reports whether err is a ResponseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	re, ok := AsResponseError(err)
	return ok && re.Kind == kind
}

func NewUnauthorized(msg string) error {
	return &ResponseError{Kind: KindUnauthorized, Msg: msg}
}

// WrapUnauthorized keeps cause for logging; the client only sees msg.
func WrapUnauthorized(msg string, cause error) error {
	return &ResponseError{Kind: KindUnauthorized, Msg: msg, Err: cause}
}

func NewForbidden(msg string) error {
	return &ResponseError{Kind: KindForbidden, Msg: msg}
}

func NewBadRequest(format string, args ...interface{}) error {
	return &ResponseError{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func NewValidationError(details ...FieldError) error {
	return &ResponseError{Kind: KindValidationFailed, Msg: validationFailedMsg, Details: details}
}

func NewNotFound(msg string) error {
	return &ResponseError{Kind: KindNotFound, Msg: msg}
}

// NewStorageError hides cause behind a fixed message.
func NewStorageError(cause error) error {
	return &ResponseError{Kind: KindStorage, Msg: storageErrorMsg, Err: cause}
}

func NewTooManyRequests(msg string) error {
	return &ResponseError{Kind: KindTooManyRequests, Msg: msg}
}
