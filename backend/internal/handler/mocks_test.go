package handler

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/itchan-dev/msgboard/shared/domain"
)

// MockMessageService implements service.MessageService.
type MockMessageService struct {
	MockCreate         func(text domain.MsgText, uploads []domain.UploadedFile) (*domain.Message, error)
	MockList           func(offset, limit int) ([]domain.Message, int)
	MockGet            func(id domain.MsgId) (*domain.Message, error)
	MockPosition       func(id domain.MsgId) (int, error)
	MockDelete         func(id domain.MsgId) error
	MockClear          func() error
	MockAttachmentFile func(messageID, subdir, filename string) (*os.File, error)
	MockArchiveSource  func(id domain.MsgId) (*domain.Message, error)
}

func (m *MockMessageService) Create(text domain.MsgText, uploads []domain.UploadedFile) (*domain.Message, error) {
	if m.MockCreate != nil {
		return m.MockCreate(text, uploads)
	}
	return &domain.Message{}, nil
}

func (m *MockMessageService) List(offset, limit int) ([]domain.Message, int) {
	if m.MockList != nil {
		return m.MockList(offset, limit)
	}
	return []domain.Message{}, 0
}

func (m *MockMessageService) Get(id domain.MsgId) (*domain.Message, error) {
	if m.MockGet != nil {
		return m.MockGet(id)
	}
	return &domain.Message{Id: id}, nil
}

func (m *MockMessageService) Position(id domain.MsgId) (int, error) {
	if m.MockPosition != nil {
		return m.MockPosition(id)
	}
	return 0, nil
}

func (m *MockMessageService) Delete(id domain.MsgId) error {
	if m.MockDelete != nil {
		return m.MockDelete(id)
	}
	return nil
}

func (m *MockMessageService) Clear() error {
	if m.MockClear != nil {
		return m.MockClear()
	}
	return nil
}

func (m *MockMessageService) AttachmentFile(messageID, subdir, filename string) (*os.File, error) {
	if m.MockAttachmentFile != nil {
		return m.MockAttachmentFile(messageID, subdir, filename)
	}
	return nil, os.ErrNotExist
}

func (m *MockMessageService) ArchiveSource(id domain.MsgId) (*domain.Message, error) {
	if m.MockArchiveSource != nil {
		return m.MockArchiveSource(id)
	}
	return &domain.Message{Id: id}, nil
}

type MockArchiver struct {
	StreamZipFunc func(msg *domain.Message, sink io.Writer) error
}

func (m *MockArchiver) StreamZip(msg *domain.Message, sink io.Writer) error {
	if m.StreamZipFunc != nil {
		return m.StreamZipFunc(msg, sink)
	}
	return nil
}

type MockDocSource struct {
	GetFunc func() (string, error)
	Version time.Time
}

func (m *MockDocSource) Get() (string, error) {
	return m.GetFunc()
}

func (m *MockDocSource) SourceVersion() time.Time {
	return m.Version
}

type MockHealthChecker struct {
	PingFunc func() error
}

func (m *MockHealthChecker) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func testConfig(tempDir string) *config.Config {
	return &config.Config{Public: config.Public{
		Storage: config.Storage{TempDir: tempDir},
		Limits: config.Limits{
			MaxAttachmentSizeBytes:   1 << 20,
			MaxAttachmentsPerMessage: 4,
			MaxTotalAttachmentSize:   2 << 20,
			MaxTextLength:            1000,
			DefaultPageLimit:         20,
			MaxPageLimit:             100,
		},
	}}
}

// routes mirrors the production routing table without the middleware stack.
func routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/messages", h.ListMessages)
	r.Post("/v1/messages", h.CreateMessage)
	r.Delete("/v1/messages", h.ClearMessages)
	r.Get("/v1/messages/{id}", h.GetMessage)
	r.Delete("/v1/messages/{id}", h.DeleteMessage)
	r.Get("/v1/messages/{id}/position", h.GetPosition)
	r.Get("/v1/messages/{id}/attachments.zip", h.DownloadZip)
	r.Get("/uploads/{messageId}/{subdir}/{filename}", h.ServeAttachment)
	r.Get("/v1/about", h.About)
	return r
}
