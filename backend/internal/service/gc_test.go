package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/msgboard/backend/internal/storage/fs"
	"github.com/itchan-dev/msgboard/backend/internal/storage/jsonstore"
	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks for GC Tests ---

type MockGCStorage struct {
	mu        sync.Mutex
	loadFunc  func() ([]domain.Message, error)
	loadCalls int
}

func (m *MockGCStorage) Load() ([]domain.Message, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.loadFunc != nil {
		return m.loadFunc()
	}
	return []domain.Message{}, nil
}

type MockGCMediaStorage struct {
	mu                   sync.Mutex
	listMessageDirsFunc  func() ([]domain.MessageDir, error)
	dirSizeFunc          func(messageID string) int64
	deleteMessageDirFunc func(messageID string) error
	deleteCalls          []string
}

func (m *MockGCMediaStorage) ListMessageDirs() ([]domain.MessageDir, error) {
	if m.listMessageDirsFunc != nil {
		return m.listMessageDirsFunc()
	}
	return []domain.MessageDir{}, nil
}

func (m *MockGCMediaStorage) DirSize(messageID string) int64 {
	if m.dirSizeFunc != nil {
		return m.dirSizeFunc(messageID)
	}
	return 0
}

func (m *MockGCMediaStorage) DeleteMessageDir(messageID string) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, messageID)
	m.mu.Unlock()

	if m.deleteMessageDirFunc != nil {
		return m.deleteMessageDirFunc(messageID)
	}
	return nil
}

func messageWithFiles(id string) domain.Message {
	return domain.Message{
		Id:    id,
		Files: []domain.AttachmentRef{{Path: id + "/images/a.png"}},
	}
}

// --- Tests ---

func TestMediaGarbageCollectorCleanup(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)

	t.Run("removes unreferenced directories and keeps referenced ones", func(t *testing.T) {
		kept, orphanA, orphanB := uuid.NewString(), uuid.NewString(), uuid.NewString()

		storage := &MockGCStorage{loadFunc: func() ([]domain.Message, error) {
			return []domain.Message{messageWithFiles(kept), {Id: uuid.NewString(), Text: "text only"}}, nil
		}}
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return []domain.MessageDir{
					{MessageID: kept, ModTime: old},
					{MessageID: orphanA, ModTime: old},
					{MessageID: orphanB, ModTime: old},
				}, nil
			},
			dirSizeFunc: func(string) int64 { return 100 },
		}

		gc := NewMediaGarbageCollector(storage, mediaStorage, 24*time.Hour)
		require.NoError(t, gc.RunCleanup())

		stats := gc.GetLastCleanupStats()
		assert.Equal(t, 3, stats.DirectoriesScanned)
		assert.Equal(t, 2, stats.OrphanedDirs)
		assert.Equal(t, 2, stats.DirsDeleted)
		assert.Equal(t, int64(200), stats.BytesReclaimed)
		assert.Empty(t, stats.Errors)

		assert.ElementsMatch(t, []string{orphanA, orphanB}, mediaStorage.deleteCalls)
		assert.NotContains(t, mediaStorage.deleteCalls, kept)
	})

	t.Run("skips directories younger than the safety threshold", func(t *testing.T) {
		young, aged := uuid.NewString(), uuid.NewString()
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return []domain.MessageDir{
					{MessageID: young, ModTime: time.Now().Add(-time.Minute)},
					{MessageID: aged, ModTime: old},
				}, nil
			},
		}

		gc := NewMediaGarbageCollector(&MockGCStorage{}, mediaStorage, 24*time.Hour)
		require.NoError(t, gc.RunCleanup())

		stats := gc.GetLastCleanupStats()
		assert.Equal(t, 1, stats.OrphanedDirs)
		assert.Equal(t, []string{aged}, mediaStorage.deleteCalls)
	})

	t.Run("ignores directories not named like messages", func(t *testing.T) {
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return []domain.MessageDir{{MessageID: "tmp", ModTime: old}}, nil
			},
		}

		gc := NewMediaGarbageCollector(&MockGCStorage{}, mediaStorage, time.Hour)
		require.NoError(t, gc.RunCleanup())

		assert.Empty(t, mediaStorage.deleteCalls)
		assert.Equal(t, 0, gc.GetLastCleanupStats().OrphanedDirs)
	})

	t.Run("records delete errors and continues", func(t *testing.T) {
		failing, ok := uuid.NewString(), uuid.NewString()
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return []domain.MessageDir{
					{MessageID: failing, ModTime: old},
					{MessageID: ok, ModTime: old},
				}, nil
			},
			deleteMessageDirFunc: func(id string) error {
				if id == failing {
					return errors.New("permission denied")
				}
				return nil
			},
		}

		gc := NewMediaGarbageCollector(&MockGCStorage{}, mediaStorage, time.Hour)
		require.NoError(t, gc.RunCleanup())

		stats := gc.GetLastCleanupStats()
		assert.Equal(t, 2, stats.OrphanedDirs)
		assert.Equal(t, 1, stats.DirsDeleted)
		require.Len(t, stats.Errors, 1)
		assert.Contains(t, stats.Errors[0], failing)
	})

	t.Run("skips the run when the message document is unreadable", func(t *testing.T) {
		storage := &MockGCStorage{loadFunc: func() ([]domain.Message, error) {
			return nil, jsonstore.ErrUnreadableDocument
		}}
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return []domain.MessageDir{{MessageID: uuid.NewString(), ModTime: old}}, nil
			},
		}

		gc := NewMediaGarbageCollector(storage, mediaStorage, time.Hour)
		err := gc.RunCleanup()
		assert.ErrorIs(t, err, jsonstore.ErrUnreadableDocument)
		assert.Empty(t, mediaStorage.deleteCalls)
	})

	t.Run("fails when the uploads root cannot be listed", func(t *testing.T) {
		mediaStorage := &MockGCMediaStorage{
			listMessageDirsFunc: func() ([]domain.MessageDir, error) {
				return nil, errors.New("no such directory")
			},
		}

		gc := NewMediaGarbageCollector(&MockGCStorage{}, mediaStorage, time.Hour)
		assert.Error(t, gc.RunCleanup())
		assert.Empty(t, mediaStorage.deleteCalls)
	})
}

func TestMediaGarbageCollectorKeepsFilesOfCorruptStore(t *testing.T) {
	dir := t.TempDir()
	media, err := fs.New(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	dataFile := filepath.Join(dir, "data.json")
	store, err := jsonstore.New(dataFile, media)
	require.NoError(t, err)

	owned := uuid.NewString()
	ownedDir := filepath.Join(media.Root(), owned, "images")
	require.NoError(t, os.MkdirAll(ownedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ownedDir, "a.png"), []byte("png"), 0o644))
	aged := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(media.Root(), owned), aged, aged))

	_, err = store.Add(messageWithFiles(owned))
	require.NoError(t, err)

	gc := NewMediaGarbageCollector(store, media, 24*time.Hour)

	for _, content := range []string{`[{"id":`, ""} {
		require.NoError(t, os.WriteFile(dataFile, []byte(content), 0o600))

		assert.Error(t, gc.RunCleanup(), "%q", content)
		assert.DirExists(t, ownedDir, "%q", content)
	}

	// once the document is readable again the referenced directory is kept
	// and a true orphan is swept
	orphan := uuid.NewString()
	require.NoError(t, os.MkdirAll(filepath.Join(media.Root(), orphan), 0o755))
	require.NoError(t, os.Chtimes(filepath.Join(media.Root(), orphan), aged, aged))
	require.NoError(t, os.Remove(dataFile))
	_, err = store.Add(messageWithFiles(owned))
	require.NoError(t, err)

	require.NoError(t, gc.RunCleanup())
	assert.DirExists(t, ownedDir)
	assert.NoDirExists(t, filepath.Join(media.Root(), orphan))
}

func TestMediaGarbageCollectorBackground(t *testing.T) {
	orphan := uuid.NewString()
	mediaStorage := &MockGCMediaStorage{
		listMessageDirsFunc: func() ([]domain.MessageDir, error) {
			return []domain.MessageDir{{MessageID: orphan, ModTime: time.Now().Add(-time.Hour)}}, nil
		},
	}
	storage := &MockGCStorage{}

	gc := NewMediaGarbageCollector(storage, mediaStorage, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc.StartBackgroundCleanup(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		storage.mu.Lock()
		defer storage.mu.Unlock()
		return storage.loadCalls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.Equal(t, 1, gc.GetLastCleanupStats().DirectoriesScanned)
}
