package setup

import (
	"fmt"
	"time"

	"github.com/itchan-dev/msgboard/backend/internal/archive"
	"github.com/itchan-dev/msgboard/backend/internal/handler"
	"github.com/itchan-dev/msgboard/backend/internal/markdown"
	"github.com/itchan-dev/msgboard/backend/internal/service"
	"github.com/itchan-dev/msgboard/backend/internal/storage/fs"
	"github.com/itchan-dev/msgboard/backend/internal/storage/jsonstore"
	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/itchan-dev/msgboard/shared/mediatype"
	"github.com/itchan-dev/msgboard/shared/middleware/ratelimiter"
	"github.com/itchan-dev/msgboard/shared/validation"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config      *config.Config
	Store       *jsonstore.Store
	Media       *fs.Storage
	Handler     *handler.Handler
	MediaGC     *service.MediaGarbageCollector
	PostLimiter *ratelimiter.UserRateLimiter
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	public := &cfg.Public

	media, err := fs.New(public.Storage.UploadsDir)
	if err != nil {
		return nil, err
	}
	store, err := jsonstore.New(public.Storage.DataFile, media)
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}

	validator := validation.NewContentValidator(mediatype.Allowed())
	message := service.NewMessage(store, media, validator, public)

	var about handler.DocSource
	if public.AboutFile != "" {
		about = markdown.NewDocCache(public.AboutFile, markdown.NewRenderer())
	}

	health := map[string]handler.HealthChecker{
		"store":   store,
		"uploads": media,
	}
	h := handler.New(message, archive.New(media), about, health, cfg)

	return &Dependencies{
		Config:      cfg,
		Store:       store,
		Media:       media,
		Handler:     h,
		MediaGC:     service.NewMediaGarbageCollector(store, media, public.MediaGC.SafetyThreshold),
		PostLimiter: ratelimiter.NewUserRateLimiter(public.Server.PostRate, public.Server.PostBurst, time.Hour),
	}, nil
}

// Close releases background resources owned by the dependencies.
func (d *Dependencies) Close() {
	d.PostLimiter.Stop()
}
