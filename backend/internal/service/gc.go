package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/itchan-dev/msgboard/shared/middleware/metrics"
	"github.com/itchan-dev/msgboard/shared/validation"
)

// MediaGarbageCollector removes attachment directories that no stored
// message references. They are left behind when a post fails after its
// files were organized, or when a best-effort removal failed.
type MediaGarbageCollector struct {
	storage         GCStorage
	mediaStorage    GCMediaStorage
	safetyThreshold time.Duration

	mu               sync.Mutex
	lastCleanupStats CleanupStats
}

// CleanupStats tracks metrics from the last garbage collection run.
type CleanupStats struct {
	RunAt              time.Time
	DirectoriesScanned int
	OrphanedDirs       int
	DirsDeleted        int
	BytesReclaimed     int64
	DurationMs         int64
	Errors             []string
}

// GCStorage must report an unreadable document instead of hiding it, since
// an empty reference set would mark every directory as an orphan.
type GCStorage interface {
	Load() ([]domain.Message, error)
}

type GCMediaStorage interface {
	ListMessageDirs() ([]domain.MessageDir, error)
	DirSize(messageID string) int64
	DeleteMessageDir(messageID string) error
}

// NewMediaGarbageCollector creates a collector. safetyThreshold is the
// minimum age of a directory before it is removed, so a post still between
// organizing and persisting is never swept.
func NewMediaGarbageCollector(storage GCStorage, mediaStorage GCMediaStorage, safetyThreshold time.Duration) *MediaGarbageCollector {
	return &MediaGarbageCollector{
		storage:         storage,
		mediaStorage:    mediaStorage,
		safetyThreshold: safetyThreshold,
	}
}

// StartBackgroundCleanup runs cleanup every interval until ctx is done.
func (gc *MediaGarbageCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	log := logger.Component("media_gc")
	ticker := time.NewTicker(interval)
	log.Info("started background cleanup",
		"interval", interval,
		"safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.RunCleanup(); err != nil {
					log.Error("cleanup failed", "error", err)
					continue
				}
				stats := gc.GetLastCleanupStats()
				log.Info("cleanup completed",
					"scanned", stats.DirectoriesScanned,
					"orphans", stats.OrphanedDirs,
					"deleted", stats.DirsDeleted,
					"bytes_reclaimed", stats.BytesReclaimed,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors))
			case <-ctx.Done():
				log.Info("shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single collection cycle.
func (gc *MediaGarbageCollector) RunCleanup() error {
	startTime := time.Now()
	stats := CleanupStats{
		RunAt:  startTime,
		Errors: []string{},
	}

	messages, err := gc.storage.Load()
	if err != nil {
		return fmt.Errorf("skipping cleanup, message document unreadable: %w", err)
	}

	referenced := make(map[string]bool)
	for _, msg := range messages {
		if msg.HasAttachments() {
			referenced[msg.Id] = true
		}
	}

	dirs, err := gc.mediaStorage.ListMessageDirs()
	if err != nil {
		return err
	}
	stats.DirectoriesScanned = len(dirs)

	for _, dir := range dirs {
		// anything not named like a message directory is not ours
		if referenced[dir.MessageID] || !validation.ValidMessageID(dir.MessageID) {
			continue
		}
		if startTime.Sub(dir.ModTime) < gc.safetyThreshold {
			continue
		}

		stats.OrphanedDirs++
		size := gc.mediaStorage.DirSize(dir.MessageID)
		if err := gc.mediaStorage.DeleteMessageDir(dir.MessageID); err != nil {
			stats.Errors = append(stats.Errors, "delete error: "+dir.MessageID+": "+err.Error())
			continue
		}
		stats.DirsDeleted++
		stats.BytesReclaimed += size
		metrics.GCDirectoriesRemoved.Inc()
	}

	stats.DurationMs = time.Since(startTime).Milliseconds()

	gc.mu.Lock()
	gc.lastCleanupStats = stats
	gc.mu.Unlock()
	return nil
}

func (gc *MediaGarbageCollector) GetLastCleanupStats() CleanupStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lastCleanupStats
}
