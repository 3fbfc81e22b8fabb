package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/itchan-dev/msgboard/shared/mediatype"
	"github.com/itchan-dev/msgboard/shared/middleware/metrics"
	"github.com/itchan-dev/msgboard/shared/utils"
)

// ServeAttachment streams one stored file. Names are random and never
// rewritten, so responses can be cached for good.
func (h *Handler) ServeAttachment(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	f, err := h.message.AttachmentFile(chi.URLParam(r, "messageId"), chi.URLParam(r, "subdir"), filename)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Content-Type", mediatype.TypeForExtension(filepath.Ext(filename)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

// DownloadZip streams all attachments of a message as one archive. Once the
// first byte is out the status can no longer change, so a failure aborts
// the connection and the client sees a truncated download.
func (h *Handler) DownloadZip(w http.ResponseWriter, r *http.Request) {
	msg, err := h.message.ArchiveSource(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.zip\"", strings.ReplaceAll(msg.Id, `"`, "")))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := h.archiver.StreamZip(msg, w); err != nil {
		metrics.ZipAborts.Inc()
		logger.Log.Error("archive stream aborted",
			"component", "archive",
			"message_id", msg.Id,
			"error", err)
		panic(http.ErrAbortHandler)
	}
	metrics.ZipDownloads.Inc()
}
