package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/utils"
	"github.com/itchan-dev/msgboard/shared/validation"
)

const (
	textField  = "message"
	filesField = "files"
)

type listQuery struct {
	Offset int `validate:"gte=0"`
	Limit  int `validate:"gte=0"`
}

type listResponse struct {
	Messages []domain.Message `json:"messages"`
	Total    int              `json:"total"`
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	messages, total := h.message.List(query.Offset, query.Limit)
	writeJSON(w, listResponse{Messages: messages, Total: total})
}

func parseListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	var err error
	if q.Offset, err = parseIntParam(r.URL.Query().Get("offset"), "offset"); err != nil {
		return q, err
	}
	if q.Limit, err = parseIntParam(r.URL.Query().Get("limit"), "limit"); err != nil {
		return q, err
	}
	return q, utils.ValidateStruct(q)
}

// parseIntParam treats an absent parameter as zero.
func parseIntParam(param string, paramName string) (int, error) {
	if param == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, internal_errors.Validation("invalid " + paramName + ": must be an integer")
	}
	return val, nil
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	limits := h.cfg.Public.Limits
	maxRequestSize := validation.CalculateMaxRequestSize(limits.MaxTotalAttachmentSize, 1<<20)
	if err := validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		if errors.Is(err, validation.ErrPayloadTooLarge) {
			utils.WriteErrorAndStatusCode(w, internal_errors.TooLarge(
				"total attachment size exceeds the limit of "+strconv.FormatFloat(validation.FormatSizeMB(limits.MaxTotalAttachmentSize), 'f', 0, 64)+" MB"))
			return
		}
		utils.WriteErrorAndStatusCode(w, internal_errors.Validation("request must be a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, cleanup, err := validation.SpoolUploads(r.MultipartForm.File[filesField], h.cfg.Public.Storage.TempDir)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer cleanup()

	msg, err := h.message.Create(r.FormValue(textField), uploads)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.message.Get(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, msg)
}

func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.message.Position(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]int{"position": pos})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.message.Delete(chi.URLParam(r, "id")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.message.Clear(); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]bool{"cleared": true})
}
