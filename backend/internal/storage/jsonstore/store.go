// Package jsonstore keeps every message in one JSON document that is read,
// changed in memory and rewritten in full on each mutation.
package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/logger"
)

// AttachmentRemover deletes the directory that backs a message's files.
type AttachmentRemover interface {
	DeleteMessageDir(messageID string) error
}

type Store struct {
	path  string
	media AttachmentRemover

	// Serialises read-modify-write cycles within this process only. A second
	// process writing the same file can still lose updates.
	mu sync.Mutex
}

func New(path string, media AttachmentRemover) (*Store, error) {
	p := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{path: p, media: media}, nil
}

// ErrUnreadableDocument means the document exists but could not be read or
// decoded into a message list.
var ErrUnreadableDocument = errors.New("message document unreadable")

// Load reads the document strictly. A missing file is an empty store; a
// file that exists but is blank, unreadable or not a message list is an
// ErrUnreadableDocument.
func (s *Store) Load() ([]domain.Message, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Message{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is blank", ErrUnreadableDocument)
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// loadOrEmpty is the single place where an unreadable document becomes
// "no messages".
func (s *Store) loadOrEmpty() []domain.Message {
	messages, err := s.Load()
	if err != nil {
		logger.Log.Error("message document is corrupt, treating as empty",
			"component", "store",
			"path", s.path,
			"error", err)
		return []domain.Message{}
	}
	return messages
}

// save replaces the document atomically via a temp file in the same dir.
func (s *Store) save(messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write messages: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace message document: %w", err)
	}
	return nil
}

// ReadAll returns messages in insertion order. It never fails.
func (s *Store) ReadAll() []domain.Message {
	return s.loadOrEmpty()
}

// Add appends msg and persists the whole document, returning the new set.
func (s *Store) Add(msg domain.Message) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Files == nil {
		msg.Files = []domain.AttachmentRef{}
	}
	messages := append(s.loadOrEmpty(), msg)
	if err := s.save(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteById removes the message with the exact id. It reports false,
// without touching anything, when the id is unknown. Attachment removal is
// best effort; the record is removed whenever the id exists.
func (s *Store) DeleteById(id domain.MsgId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.loadOrEmpty()
	idx := indexOf(messages, id)
	if idx == -1 {
		return false, nil
	}

	s.removeAttachments(messages[idx])
	messages = removeRecord(messages, idx)

	if err := s.save(messages); err != nil {
		return true, err
	}
	return true, nil
}

// ClearAll removes every message's directory, continuing past individual
// failures, then persists an empty document. Only the persist can fail it.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.loadOrEmpty() {
		s.removeAttachments(msg)
	}
	return s.save([]domain.Message{})
}

func (s *Store) removeAttachments(msg domain.Message) {
	if !msg.HasAttachments() || s.media == nil {
		return
	}
	if err := s.media.DeleteMessageDir(msg.Id); err != nil {
		logger.Log.Warn("failed to remove attachment directory",
			"component", "store",
			"message_id", msg.Id,
			"error", err)
	}
}

func removeRecord(messages []domain.Message, idx int) []domain.Message {
	out := make([]domain.Message, 0, len(messages)-1)
	out = append(out, messages[:idx]...)
	return append(out, messages[idx+1:]...)
}

func indexOf(messages []domain.Message, id domain.MsgId) int {
	for i := range messages {
		if messages[i].Id == id {
			return i
		}
	}
	return -1
}

// Ping checks the directory holding the document is reachable.
func (s *Store) Ping() error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}
