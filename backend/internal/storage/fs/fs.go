package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/itchan-dev/msgboard/shared/mediatype"
)

// URLPrefix is the public path under which stored attachments are served.
const URLPrefix = "/uploads/"

var ErrInvalidPath = errors.New("invalid storage path")

// Storage owns the uploads tree: {root}/{messageId}/{subdir}/{name}.{ext}.
type Storage struct {
	rootPath string
}

func New(rootPath string) (*Storage, error) {
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

func (s *Storage) Root() string {
	return s.rootPath
}

// Organize moves accepted uploads into a fresh per-message directory,
// grouped by classified subdirectory. With no input it creates nothing and
// returns an empty id. Files whose type has no subdirectory are dropped.
// A failure part way leaves what was already moved in place.
func (s *Storage) Organize(files []domain.AcceptedFile) (string, []domain.AttachmentRef, error) {
	refs := []domain.AttachmentRef{}
	if len(files) == 0 {
		return "", refs, nil
	}

	messageID := uuid.NewString()
	messageDir := filepath.Join(s.rootPath, messageID)
	if err := os.MkdirAll(messageDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create message directory: %w", err)
	}

	groups := make(map[string][]domain.AcceptedFile)
	var order []string
	for _, f := range files {
		subdir := mediatype.SubdirectoryFor(f.VerifiedMimeType)
		if subdir == "" {
			logger.Log.Warn("dropping attachment with unclassified type",
				"component", "organizer",
				"message_id", messageID,
				"mimetype", f.VerifiedMimeType)
			continue
		}
		if _, seen := groups[subdir]; !seen {
			order = append(order, subdir)
		}
		groups[subdir] = append(groups[subdir], f)
	}

	for _, subdir := range order {
		dir := filepath.Join(messageDir, subdir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}

		for _, f := range groups[subdir] {
			filename := generateFilename(mediatype.ExtensionFor(f.VerifiedMimeType))
			if err := moveFile(f.TempPath, filepath.Join(dir, filename)); err != nil {
				return "", nil, fmt.Errorf("failed to relocate %q: %w", f.OriginalName, err)
			}

			relativePath := path.Join(messageID, subdir, filename)
			refs = append(refs, domain.AttachmentRef{
				Path:         relativePath,
				OriginalName: f.OriginalName,
				MimeType:     f.VerifiedMimeType,
				SizeBytes:    f.SizeBytes,
				Url:          URLFor(relativePath),
				ImageWidth:   f.ImageWidth,
				ImageHeight:  f.ImageHeight,
			})
		}
	}

	return messageID, refs, nil
}

func URLFor(relativePath string) string {
	return URLPrefix + relativePath
}

// generateFilename returns 32 hex chars plus ext.
func generateFilename(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// moveFile renames src into place, falling back to copy and remove when the
// temp dir lives on another volume.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// resolve maps a slash-separated relative path into the root, refusing
// anything that would escape it.
func (s *Storage) resolve(relativePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.rootPath, clean), nil
}

// Open opens a stored file for reading.
func (s *Storage) Open(relativePath string) (*os.File, error) {
	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Exists reports whether relativePath is a regular file.
func (s *Storage) Exists(relativePath string) bool {
	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// DeleteMessageDir removes a message's whole attachment directory. A
// directory that is already gone is not an error.
func (s *Storage) DeleteMessageDir(messageID string) error {
	if messageID == "" || strings.ContainsAny(messageID, `/\`) {
		return ErrInvalidPath
	}
	dir, err := s.resolve(messageID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete message directory: %w", err)
	}
	return nil
}

// ListMessageDirs returns every top-level directory under the root.
func (s *Storage) ListMessageDirs() ([]domain.MessageDir, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploads root: %w", err)
	}

	var dirs []domain.MessageDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, domain.MessageDir{MessageID: e.Name(), ModTime: info.ModTime()})
	}
	return dirs, nil
}

// DirSize sums the sizes of regular files below a message directory.
func (s *Storage) DirSize(messageID string) int64 {
	dir, err := s.resolve(messageID)
	if err != nil {
		return 0
	}
	var total int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Ping checks that the uploads root is still a reachable directory.
func (s *Storage) Ping() error {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.rootPath)
	}
	return nil
}
