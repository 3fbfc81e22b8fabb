package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/logger"
)

// ValidateAndParseMultipart validates request size and parses the multipart form.
// When the MaxBytesReader limit is hit the server stops reading and the
// client may see a connection reset instead of the 413 body.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	// Parts above 1 MiB go to os temp files; they are copied into our own
	// temp dir by SpoolUploads.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if isBodyTooLargeError(err) {
			return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
		}
		return fmt.Errorf("failed to parse multipart form: %w", err)
	}

	return nil
}

func isBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
func CalculateMaxRequestSize(maxAttachmentSize int64, bufferSize int64) int64 {
	return maxAttachmentSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}

// SpoolUploads writes every file part into tempDir and returns them as one
// flat ordered list, whether the form carried one file or many. The returned
// cleanup removes whatever temp files are still in place; files that were
// already moved away are skipped silently.
func SpoolUploads(headers []*multipart.FileHeader, tempDir string) ([]domain.UploadedFile, func(), error) {
	uploads := make([]domain.UploadedFile, 0, len(headers))
	cleanup := func() { RemoveTempFiles(uploads) }

	if len(headers) == 0 {
		return uploads, cleanup, nil
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, func() {}, fmt.Errorf("failed to create temp upload dir: %w", err)
	}

	for _, fh := range headers {
		upload, err := spoolOne(fh, tempDir)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		uploads = append(uploads, upload)
	}

	return uploads, cleanup, nil
}

func spoolOne(fh *multipart.FileHeader, tempDir string) (domain.UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(tempDir, "upload-*")
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst.Name())
		return domain.UploadedFile{}, fmt.Errorf("failed to spool uploaded file: %w", err)
	}

	return domain.UploadedFile{
		TempPath:         dst.Name(),
		DeclaredMimeType: fh.Header.Get("Content-Type"),
		OriginalName:     SanitizeOriginalName(fh.Filename),
		SizeBytes:        written,
	}, nil
}

// RemoveTempFiles is the quarantine cleanup. Failures are logged and never
// returned so they cannot mask the rejection that triggered them.
func RemoveTempFiles(files []domain.UploadedFile) {
	for _, f := range files {
		if f.TempPath == "" {
			continue
		}
		if err := os.Remove(f.TempPath); err != nil && !os.IsNotExist(err) {
			logger.Log.Warn("failed to remove temp upload",
				"component", "upload",
				"path", f.TempPath,
				"error", err)
		}
	}
}

// SanitizeOriginalName keeps only the base name of the client filename.
func SanitizeOriginalName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return "upload.bin"
	}
	return truncateUTF8(name, maxOriginalNameBytes)
}

const maxOriginalNameBytes = 255

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
