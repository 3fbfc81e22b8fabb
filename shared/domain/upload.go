package domain

import "time"

// UploadedFile is one file delivered by the upload parser. DeclaredMimeType
// is whatever the client claimed and is never trusted for storage decisions.
type UploadedFile struct {
	TempPath         string
	DeclaredMimeType string
	OriginalName     string
	SizeBytes        int64
}

// AcceptedFile is an upload whose content passed validation.
type AcceptedFile struct {
	UploadedFile
	VerifiedMimeType string
	ImageWidth       *int
	ImageHeight      *int
}

// MessageDir is one top-level directory of the uploads tree.
type MessageDir struct {
	MessageID string
	ModTime   time.Time
}
