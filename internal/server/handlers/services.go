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

// ServiceHandler обрабатывает запросы каталога услуг
type ServiceHandler struct {
	services storage.ServiceStorage
	blobs    upload.BlobStore
	now      func() time.Time
	responder
	policy upload.Policy
}

// NewServiceHandler создает новый handler для услуг
func NewServiceHandler(logger *slog.Logger, services storage.ServiceStorage, blobs upload.BlobStore, policy upload.Policy) *ServiceHandler {
	return &ServiceHandler{
		responder: newResponder(logger),
		services:  services,
		blobs:     blobs,
		policy:    policy,
		now:       time.Now,
	}
}

// List обрабатывает GET /api/v1/services
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.ListServices(r.Context())
	if err != nil {
		h.logError(r, "failed to list services", err)
		h.sendError(w, "Could not retrieve services", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Service, 0, len(services))
	for _, s := range services {
		resp = append(resp, h.toAPI(r, s))
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// Create обрабатывает POST /api/v1/services
// multipart/form-data: title_en, title_ar, description_en, description_ar и файл image
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r, h.policy.MaxBytes) {
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	service := &models.Service{
		TitleEN:       strings.TrimSpace(r.FormValue("title_en")),
		TitleAR:       strings.TrimSpace(r.FormValue("title_ar")),
		DescriptionEN: strings.TrimSpace(r.FormValue("description_en")),
		DescriptionAR: strings.TrimSpace(r.FormValue("description_ar")),
	}
	if service.TitleEN == "" || service.TitleAR == "" || service.DescriptionEN == "" || service.DescriptionAR == "" {
		h.sendError(w, "All title and description fields (EN + AR) are required", http.StatusBadRequest)
		return
	}

	stored, ok := h.storeFile(w, r, fileUpload{
		blobs:      h.blobs,
		policy:     h.policy,
		field:      "image",
		prefix:     upload.PrefixServices,
		missingMsg: "image file is required (field name: image)",
		failMsg:    "Failed to create service",
	})
	if !ok {
		return
	}

	now := h.now().UTC()
	service.ID = uuid.New().String()
	service.Image = stored.key
	service.CreatedAt = now
	service.UpdatedAt = now

	if err := h.services.CreateService(r.Context(), service); err != nil {
		h.logError(r, "failed to create service", err)
		h.removeBlob(r, h.blobs, stored.key)
		h.sendError(w, "Failed to create service", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "service created", slog.String("service_id", service.ID))
	h.sendJSON(w, api.ServiceResponse{Message: "Service created", Service: h.toAPI(r, service)}, http.StatusCreated)
}

// Delete обрабатывает DELETE /api/v1/services/{id}
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.sendError(w, "Service id required", http.StatusBadRequest)
		return
	}

	service, err := h.services.DeleteService(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.sendError(w, "Service not found", http.StatusNotFound)
			return
		}
		h.logError(r, "failed to delete service", err)
		h.sendError(w, "Failed to delete service", http.StatusInternalServerError)
		return
	}

	h.removeBlob(r, h.blobs, service.Image)
	h.logger.InfoContext(r.Context(), "service deleted", slog.String("service_id", id))
	h.sendMessage(w, "Service deleted", http.StatusOK)
}

func (h *ServiceHandler) toAPI(r *http.Request, s *models.Service) api.Service {
	return api.Service{
		ID:            s.ID,
		TitleEN:       s.TitleEN,
		TitleAR:       s.TitleAR,
		DescriptionEN: s.DescriptionEN,
		DescriptionAR: s.DescriptionAR,
		Image:         publicURL(r, h.blobs, s.Image),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
