package domain

import (
	"time"
)

type (
	MsgId   = string
	MsgText = string
)

// Message is the persisted unit of the board. It always has text or at
// least one attachment.
type Message struct {
	Id        MsgId           `json:"id"`
	Text      MsgText         `json:"message"`
	Files     []AttachmentRef `json:"files"`
	Timestamp time.Time       `json:"timestamp"`
}

func (m *Message) HasAttachments() bool {
	return len(m.Files) > 0
}

// AttachmentRef describes one stored file owned by a message.
type AttachmentRef struct {
	// "messageId/subdir/generatedName.ext", relative to the uploads root
	Path         string `json:"path"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	SizeBytes    int64  `json:"size"`
	Url          string `json:"url"`
	ImageWidth   *int   `json:"width,omitempty"`
	ImageHeight  *int   `json:"height,omitempty"`
}
