package service

import (
	"fmt"
	"html"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/itchan-dev/msgboard/backend/internal/storage/jsonstore"
	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/itchan-dev/msgboard/shared/mediatype"
	"github.com/itchan-dev/msgboard/shared/middleware/metrics"
	"github.com/itchan-dev/msgboard/shared/validation"
)

type MessageService interface {
	Create(text domain.MsgText, uploads []domain.UploadedFile) (*domain.Message, error)
	List(offset, limit int) ([]domain.Message, int)
	Get(id domain.MsgId) (*domain.Message, error)
	Position(id domain.MsgId) (int, error)
	Delete(id domain.MsgId) error
	Clear() error
	AttachmentFile(messageID, subdir, filename string) (*os.File, error)
	ArchiveSource(id domain.MsgId) (*domain.Message, error)
}

type MessageStorage interface {
	ReadAll() []domain.Message
	Add(msg domain.Message) ([]domain.Message, error)
	DeleteById(id domain.MsgId) (bool, error)
	ClearAll() error
}

type AttachmentStorage interface {
	Organize(files []domain.AcceptedFile) (string, []domain.AttachmentRef, error)
	Open(relativePath string) (*os.File, error)
	Exists(relativePath string) bool
}

type ContentValidator interface {
	Validate(filePath string) validation.ContentResult
}

type Message struct {
	storage   MessageStorage
	media     AttachmentStorage
	validator ContentValidator
	cfg       *config.Public
	policy    *bluemonday.Policy
}

func NewMessage(storage MessageStorage, media AttachmentStorage, validator ContentValidator, cfg *config.Public) *Message {
	return &Message{
		storage:   storage,
		media:     media,
		validator: validator,
		cfg:       cfg,
		policy:    bluemonday.StrictPolicy(),
	}
}

// Create validates the text and every upload, relocates the accepted files
// and appends the message. Any upload still in its temp location when Create
// returns with an error is removed.
func (s *Message) Create(text domain.MsgText, uploads []domain.UploadedFile) (*domain.Message, error) {
	text = s.normalizeText(text)

	accepted, err := s.checkUploads(text, uploads)
	if err != nil {
		validation.RemoveTempFiles(uploads)
		return nil, err
	}

	messageID, refs, err := s.media.Organize(accepted)
	if err != nil {
		validation.RemoveTempFiles(uploads)
		return nil, fmt.Errorf("failed to store attachments: %w", err)
	}
	if text == "" && len(refs) == 0 {
		return nil, internal_errors.Validation("message must contain text or at least one file")
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	msg := domain.Message{
		Id:        messageID,
		Text:      text,
		Files:     refs,
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.storage.Add(msg); err != nil {
		return nil, err
	}

	metrics.MessagesCreated.Inc()
	for _, ref := range refs {
		metrics.AttachmentsStored.WithLabelValues(mediatype.SubdirectoryFor(ref.MimeType)).Inc()
	}
	return &msg, nil
}

// normalizeText drops markup and surrounding whitespace. Entities are
// unescaped again since text is returned as JSON, not HTML.
func (s *Message) normalizeText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

func (s *Message) checkUploads(text string, uploads []domain.UploadedFile) ([]domain.AcceptedFile, error) {
	limits := s.cfg.Limits

	if text == "" && len(uploads) == 0 {
		return nil, internal_errors.Validation("message must contain text or at least one file")
	}
	if n := utf8.RuneCountInString(text); limits.MaxTextLength > 0 && n > limits.MaxTextLength {
		return nil, internal_errors.Validation(fmt.Sprintf("message text is too long: %d characters, max %d", n, limits.MaxTextLength))
	}
	if len(uploads) > limits.MaxAttachmentsPerMessage {
		metrics.AttachmentsRejected.WithLabelValues("too_many").Inc()
		return nil, internal_errors.Validation(fmt.Sprintf("too many files: %d, max %d", len(uploads), limits.MaxAttachmentsPerMessage))
	}

	accepted := make([]domain.AcceptedFile, 0, len(uploads))
	for _, upload := range uploads {
		if upload.SizeBytes > limits.MaxAttachmentSizeBytes {
			metrics.AttachmentsRejected.WithLabelValues("too_large").Inc()
			return nil, internal_errors.TooLarge(fmt.Sprintf("file %q is too large: %.2f MB, max %.2f MB",
				upload.OriginalName,
				validation.FormatSizeMB(upload.SizeBytes),
				validation.FormatSizeMB(limits.MaxAttachmentSizeBytes)))
		}

		result := s.validator.Validate(upload.TempPath)
		if !result.Accepted {
			metrics.AttachmentsRejected.WithLabelValues(rejectionLabel(result.Reason)).Inc()
			logger.Log.Info("rejected upload",
				"original_name", upload.OriginalName,
				"declared_type", upload.DeclaredMimeType,
				"reason", result.Reason)
			return nil, internal_errors.InvalidAttachment(fmt.Sprintf("file %q rejected: %s", upload.OriginalName, result.Reason))
		}

		file := domain.AcceptedFile{UploadedFile: upload, VerifiedMimeType: result.VerifiedType}
		if strings.HasPrefix(result.VerifiedType, "image/") {
			file.ImageWidth, file.ImageHeight = validation.ExtractImageDimensions(upload.TempPath, result.VerifiedType)
		}
		accepted = append(accepted, file)
	}
	return accepted, nil
}

func rejectionLabel(reason string) string {
	switch {
	case strings.HasPrefix(reason, validation.ReasonNotPermitted):
		return "not_permitted"
	case strings.HasPrefix(reason, validation.ReasonUndeterminable):
		return "undeterminable"
	default:
		return "unreadable"
	}
}

// List returns one page counted back from the newest message, oldest first,
// and the total number of messages.
func (s *Message) List(offset, limit int) ([]domain.Message, int) {
	limits := s.cfg.Limits
	if limit <= 0 {
		limit = limits.DefaultPageLimit
	}
	if limits.MaxPageLimit > 0 && limit > limits.MaxPageLimit {
		limit = limits.MaxPageLimit
	}

	sorted := jsonstore.SortByTimestamp(s.storage.ReadAll())
	return jsonstore.Paginate(sorted, offset, limit), len(sorted)
}

func (s *Message) Get(id domain.MsgId) (*domain.Message, error) {
	for _, msg := range s.storage.ReadAll() {
		if msg.Id == id {
			return &msg, nil
		}
	}
	return nil, internal_errors.NotFound("message not found")
}

func (s *Message) Position(id domain.MsgId) (int, error) {
	sorted := jsonstore.SortByTimestamp(s.storage.ReadAll())
	pos, ok := jsonstore.PositionOf(sorted, id)
	if !ok {
		return 0, internal_errors.NotFound("message not found")
	}
	return pos, nil
}

func (s *Message) Delete(id domain.MsgId) error {
	found, err := s.storage.DeleteById(id)
	if err != nil {
		return err
	}
	if !found {
		return internal_errors.NotFound("message not found")
	}
	metrics.MessagesDeleted.Inc()
	return nil
}

func (s *Message) Clear() error {
	return s.storage.ClearAll()
}

// AttachmentFile opens one stored file. The segments are matched against
// strict patterns before the filesystem is touched.
func (s *Message) AttachmentFile(messageID, subdir, filename string) (*os.File, error) {
	if err := validation.ValidateAttachmentPath(messageID, subdir, filename); err != nil {
		return nil, internal_errors.Validation("invalid attachment path")
	}

	f, err := s.media.Open(path.Join(messageID, subdir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NotFound("file not found")
		}
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, internal_errors.NotFound("file not found")
	}
	return f, nil
}

// ArchiveSource returns the message only if it has attachments and every
// one of them is present on disk, so a ZIP can be streamed without failing
// on a missing file.
func (s *Message) ArchiveSource(id domain.MsgId) (*domain.Message, error) {
	msg, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !msg.HasAttachments() {
		return nil, internal_errors.NotFound("message has no attachments")
	}
	for _, ref := range msg.Files {
		if !s.media.Exists(ref.Path) {
			return nil, internal_errors.NotFound(fmt.Sprintf("attachment %q is missing", ref.OriginalName))
		}
	}
	return msg, nil
}
