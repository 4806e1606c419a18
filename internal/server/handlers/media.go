package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/server/upload"
	"github.com/iudanet/rockbridge/pkg/api"
)

// MediaHandler обрабатывает запросы медиатеки
type MediaHandler struct {
	media storage.MediaStorage
	blobs upload.BlobStore
	now   func() time.Time
	responder
	policy upload.Policy
}

// NewMediaHandler создает новый handler для медиатеки
func NewMediaHandler(logger *slog.Logger, media storage.MediaStorage, blobs upload.BlobStore, policy upload.Policy) *MediaHandler {
	return &MediaHandler{
		responder: newResponder(logger),
		media:     media,
		blobs:     blobs,
		policy:    policy,
		now:       time.Now,
	}
}

// List обрабатывает GET /api/v1/media
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.media.ListMedia(r.Context())
	if err != nil {
		h.logError(r, "failed to list media", err)
		h.sendError(w, "Could not retrieve media", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Media, 0, len(items))
	for _, m := range items {
		resp = append(resp, h.toAPI(r, m))
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/media
// Нужны заголовок и описание хотя бы на одном языке и файл в поле file
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r, h.policy.MaxBytes) {
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	item := &models.Media{
		TitleEN:       strings.TrimSpace(r.FormValue("title_en")),
		TitleAR:       strings.TrimSpace(r.FormValue("title_ar")),
		DescriptionEN: strings.TrimSpace(r.FormValue("description_en")),
		DescriptionAR: strings.TrimSpace(r.FormValue("description_ar")),
	}
	if (item.TitleEN == "" && item.TitleAR == "") || (item.DescriptionEN == "" && item.DescriptionAR == "") {
		h.sendError(w, "Please provide title (en or ar) and description (en or ar)", http.StatusBadRequest)
		return
	}

	stored, ok := h.storeFile(w, r, fileUpload{
		blobs:      h.blobs,
		policy:     h.policy,
		field:      "file",
		prefix:     upload.PrefixMedia,
		missingMsg: "file is required (field name: file)",
		failMsg:    "Failed to upload media",
	})
	if !ok {
		return
	}

	now := h.now().UTC()
	item.ID = uuid.New().String()
	item.MediaKey = stored.key
	item.MediaType = upload.MediaTypeOf(stored.contentType)
	item.MimeType = stored.contentType
	item.Size = stored.size
	item.CreatedAt = now
	item.UpdatedAt = now
	if user, ok := UserFromContext(r.Context()); ok {
		item.UploadedBy = user.ID
	}

	if err := h.media.CreateMedia(r.Context(), item); err != nil {
		h.logError(r, "failed to create media", err)
		h.removeBlob(r, h.blobs, stored.key)
		h.sendError(w, "Failed to upload media", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "media uploaded",
		slog.String("media_id", item.ID),
		slog.String("media_type", string(item.MediaType)),
		slog.Int64("size", item.Size))
	h.sendJSON(w, api.MediaResponse{Message: "Media uploaded", Media: h.toAPI(r, item)}, http.StatusCreated)
}

// Delete обрабатывает DELETE /api/v1/media/{id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.sendError(w, "Media id required", http.StatusBadRequest)
		return
	}

	item, err := h.media.DeleteMedia(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.sendError(w, "Media not found", http.StatusNotFound)
			return
		}
		h.logError(r, "failed to delete media", err)
		h.sendError(w, "Failed to delete media", http.StatusInternalServerError)
		return
	}

	h.removeBlob(r, h.blobs, item.MediaKey)
	h.logger.InfoContext(r.Context(), "media deleted", slog.String("media_id", id))
	h.sendMessage(w, "Media deleted", http.StatusOK)
}

func (h *MediaHandler) toAPI(r *http.Request, m *models.Media) api.Media {
	return api.Media{
		ID:            m.ID,
		TitleEN:       m.TitleEN,
		TitleAR:       m.TitleAR,
		DescriptionEN: m.DescriptionEN,
		DescriptionAR: m.DescriptionAR,
		MediaURL:      publicURL(r, h.blobs, m.MediaKey),
		MediaType:     string(m.MediaType),
		MimeType:      m.MimeType,
		UploadedBy:    m.UploadedBy,
		Size:          m.Size,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
