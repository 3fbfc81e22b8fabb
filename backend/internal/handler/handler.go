package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/itchan-dev/msgboard/backend/internal/service"
	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/utils"
)

type Archiver interface {
	StreamZip(msg *domain.Message, sink io.Writer) error
}

// DocSource is a rendered document that may change on disk.
type DocSource interface {
	Get() (string, error)
	SourceVersion() time.Time
}

// HealthChecker is a dependency probed by /ready.
type HealthChecker interface {
	Ping() error
}

type Handler struct {
	message  service.MessageService
	archiver Archiver
	about    DocSource
	health   map[string]HealthChecker
	cfg      *config.Config
}

func New(message service.MessageService, archiver Archiver, about DocSource, health map[string]HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		message:  message,
		archiver: archiver,
		about:    about,
		health:   health,
		cfg:      cfg,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	utils.WriteJSON(w, http.StatusOK, v)
}
