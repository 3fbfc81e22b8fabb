// Package archive streams a message's attachments as a ZIP.
package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/itchan-dev/msgboard/shared/domain"
)

// FileOpener opens a stored attachment by its relative path.
type FileOpener interface {
	Open(relativePath string) (*os.File, error)
}

type Archiver struct {
	files FileOpener
}

func New(files FileOpener) *Archiver {
	return &Archiver{files: files}
}

// EntryName strips the leading message id so the archive root holds
// subdir/filename entries.
func EntryName(msg *domain.Message, ref domain.AttachmentRef) string {
	name := strings.TrimPrefix(ref.Path, msg.Id+"/")
	return path.Clean(name)
}

// StreamZip writes the archive entry by entry into sink. Callers must check
// beforehand that every file exists. Any error means the sink holds a
// truncated archive; no further entries are written after the first failure.
func (a *Archiver) StreamZip(msg *domain.Message, sink io.Writer) error {
	zw := zip.NewWriter(sink)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, ref := range msg.Files {
		if err := a.addEntry(zw, EntryName(msg, ref), ref); err != nil {
			return err
		}
		// sends the buffered output; the entry's last compressed block follows
		// with the next header or Close
		if err := zw.Flush(); err != nil {
			return fmt.Errorf("failed to flush archive: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (a *Archiver) addEntry(zw *zip.Writer, name string, ref domain.AttachmentRef) error {
	src, err := a.files.Open(ref.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ref.Path, err)
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	if info, err := src.Stat(); err == nil {
		header.Modified = info.ModTime()
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
