package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *ErrorWithStatusCode
		status int
		code   string
	}{
		{"validation", Validation("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{"attachment", InvalidAttachment("bad file"), http.StatusBadRequest, CodeAttachmentInvalid},
		{"too large", TooLarge("big"), http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"not found", NotFound("gone"), http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestAsAndIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NotFound("message not found"))

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)

	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrNotFound)))
	assert.False(t, IsNotFound(errors.New("disk on fire")))
	assert.False(t, IsNotFound(Validation("nope")))

	assert.True(t, Is[*ErrorWithStatusCode](Validation("x")))
	assert.False(t, Is[*ErrorWithStatusCode](wrapped))
}
