package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttachmentPath(t *testing.T) {
	const id = "3f2b8c1e-9a4d-4c6b-8e2f-1a2b3c4d5e6f"
	const name = "0123456789abcdef0123456789abcdef.png"

	tests := []struct {
		name     string
		id       string
		subdir   string
		filename string
		ok       bool
	}{
		{"valid", id, "images", name, true},
		{"traversal in id", "../../etc", "images", name, false},
		{"uppercase id", "3F2B8C1E-9A4D-4C6B-8E2F-1A2B3C4D5E6F", "images", name, false},
		{"dotted subdir", id, "..", name, false},
		{"subdir with slash", id, "images/..", name, false},
		{"uppercase subdir", id, "Images", name, false},
		{"unknown subdir", id, "docs", name, false},
		{"filename traversal", id, "images", "../secret.png", false},
		{"filename double dot", id, "images", "0123456789abcdef0123456789abcdef..png", false},
		{"filename long extension", id, "images", "0123456789abcdef0123456789abcdef.phtml", false},
		{"filename non hex", id, "images", "passwd.png", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttachmentPath(tt.id, tt.subdir, tt.filename)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPath)
			}
		})
	}
}

func TestValidMessageID(t *testing.T) {
	assert.True(t, ValidMessageID("3f2b8c1e-9a4d-4c6b-8e2f-1a2b3c4d5e6f"))
	assert.False(t, ValidMessageID("3f2b8c1e9a4d4c6b8e2f1a2b3c4d5e6f"))
	assert.False(t, ValidMessageID("not-a-uuid"))
}
