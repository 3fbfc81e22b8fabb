package validation

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	ReasonUndeterminable = "type undeterminable"
	ReasonNotPermitted   = "type not permitted"
	ReasonUnreadable     = "file unreadable"
)

// ContentResult is the verdict on one file. Reason is set only on rejection.
type ContentResult struct {
	Accepted     bool
	VerifiedType string
	Reason       string
}

// ContentValidator determines a file's type from its leading bytes and
// checks it against an allow-list. It never deletes the file it judges.
type ContentValidator struct {
	allowed []string
}

func NewContentValidator(allowed []string) *ContentValidator {
	return &ContentValidator{allowed: allowed}
}

func (v *ContentValidator) Validate(filePath string) ContentResult {
	info, err := os.Stat(filePath)
	if err != nil {
		return ContentResult{Reason: fmt.Sprintf("%s: %v", ReasonUnreadable, err)}
	}
	if info.Size() == 0 {
		return ContentResult{Reason: ReasonUndeterminable}
	}

	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return ContentResult{Reason: fmt.Sprintf("%s: %v", ReasonUnreadable, err)}
	}
	if mtype == nil || !hasSignature(mtype) {
		return ContentResult{Reason: ReasonUndeterminable}
	}

	// Is also matches aliases such as audio/x-wav.
	for _, allowed := range v.allowed {
		if mtype.Is(allowed) {
			return ContentResult{Accepted: true, VerifiedType: allowed}
		}
	}

	return ContentResult{Reason: fmt.Sprintf("%s: %s", ReasonNotPermitted, baseType(mtype.String()))}
}

// hasSignature is false for the detector's fallbacks: octet-stream for
// binary input and plain text for anything that merely decodes as text.
func hasSignature(mtype *mimetype.MIME) bool {
	switch baseType(mtype.String()) {
	case "application/octet-stream", "text/plain":
		return false
	}
	return true
}

func baseType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		return strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

// ExtractImageDimensions decodes only the image header. Non-images and
// undecodable files yield nil, nil.
func ExtractImageDimensions(filePath string, mimeType string) (*int, *int) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, nil
	}

	width, height := cfg.Width, cfg.Height
	return &width, &height
}
