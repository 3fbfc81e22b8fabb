package validation

import "errors"

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrInvalidPath is returned when a requested attachment path does not match
// the shape of generated storage paths.
var ErrInvalidPath = errors.New("invalid attachment path")
