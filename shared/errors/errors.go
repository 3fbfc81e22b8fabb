package errors

import (
	"errors"
	"net/http"
)

// ErrNotFound marks lookups of unknown messages or attachment files.
var ErrNotFound = errors.New("not found")

// Error codes used in the JSON error envelope.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL_ERROR"
	CodeAttachmentInvalid = "ATTACHMENT_INVALID"
	CodeRateLimited       = "RATE_LIMITED"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Code       string
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func Validation(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest, Code: CodeInvalidRequest}
}

// InvalidAttachment is a validation error caused by a file's content.
func InvalidAttachment(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest, Code: CodeAttachmentInvalid}
}

func TooLarge(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge}
}

func NotFound(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound, Code: CodeNotFound}
}

// Is reports whether err is of type T, without unwrapping.
func Is[T error](err error) bool {
	_, ok := err.(T)
	return ok
}

// As unwraps err looking for an *ErrorWithStatusCode.
func As(err error) (*ErrorWithStatusCode, bool) {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound matches both the sentinel and 404 typed results.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	e, ok := As(err)
	return ok && e.StatusCode == http.StatusNotFound
}
