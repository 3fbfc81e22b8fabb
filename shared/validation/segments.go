package validation

import (
	"regexp"

	"github.com/itchan-dev/msgboard/shared/mediatype"
)

var (
	messageIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	filenamePattern  = regexp.MustCompile(`^[0-9a-f]{32}\.[a-z0-9]{2,4}$`)
)

// ValidMessageID reports whether id is a canonical lowercase UUID.
func ValidMessageID(id string) bool {
	return messageIDPattern.MatchString(id)
}

// ValidateAttachmentPath checks the three segments of an attachment URL
// before any filesystem access.
func ValidateAttachmentPath(messageID, subdir, filename string) error {
	if !messageIDPattern.MatchString(messageID) ||
		!mediatype.IsSubdirectory(subdir) ||
		!filenamePattern.MatchString(filename) {
		return ErrInvalidPath
	}
	return nil
}
