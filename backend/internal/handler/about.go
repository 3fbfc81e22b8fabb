package handler

import (
	"net/http"

	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/utils"
)

// About serves the rendered about document as an HTML fragment.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	if h.about == nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.NotFound("no about document configured"))
		return
	}

	content, err := h.about.Get()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if version := h.about.SourceVersion(); !version.IsZero() {
		w.Header().Set("Last-Modified", version.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}
