package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/validation"
	"github.com/iudanet/rockbridge/pkg/api"
)

// QuoteNotifier рассылает уведомления о новой заявке, реализуется mailer.Mailer
type QuoteNotifier interface {
	SendQuoteNotifications(ctx context.Context, quote *models.QuoteRequest) error
}

// QuoteHandler обрабатывает заявки на расчет стоимости
type QuoteHandler struct {
	quotes   storage.QuoteStorage
	notifier QuoteNotifier
	now      func() time.Time
	responder
}

// NewQuoteHandler создает новый handler для заявок
func NewQuoteHandler(logger *slog.Logger, quotes storage.QuoteStorage, notifier QuoteNotifier) *QuoteHandler {
	return &QuoteHandler{
		responder: newResponder(logger),
		quotes:    quotes,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Create обрабатывает POST /api/v1/quotes
// Письма отправляются после сохранения; их ошибка не отменяет заявку
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	now := h.now().UTC()
	quote := &models.QuoteRequest{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     validation.NormalizeEmail(req.Email),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := validation.RequireFields(
		[]string{"name", "phone", "email", "message"},
		map[string]string{"name": quote.Name, "phone": quote.Phone, "email": quote.Email, "message": quote.Message},
	); err != nil {
		h.sendError(w, "name, phone, email and message are required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(quote.Email); err != nil {
		h.sendError(w, "Please provide a valid email address", http.StatusBadRequest)
		return
	}

	if err := h.quotes.CreateQuote(r.Context(), quote); err != nil {
		h.logError(r, "failed to create quote", err)
		h.sendError(w, "Failed to create quote request", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "quote request created", slog.String("quote_id", quote.ID))

	message := "Quote request created"
	if err := h.notifier.SendQuoteNotifications(r.Context(), quote); err != nil {
		h.logger.WarnContext(r.Context(), "quote notification failed",
			slog.String("quote_id", quote.ID),
			slog.Any("error", err))
		message = "Quote request saved but notification email failed"
	}

	h.sendJSON(w, api.QuoteResponse{Message: message, Quote: toAPIQuote(quote)}, http.StatusCreated)
}

// List обрабатывает GET /api/v1/quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.ListQuotes(r.Context())
	if err != nil {
		h.logError(r, "failed to list quotes", err)
		h.sendError(w, "Could not retrieve quote requests", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Quote, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toAPIQuote(q))
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.sendError(w, "Quote id required", http.StatusBadRequest)
		return
	}

	if err := h.quotes.DeleteQuote(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.sendError(w, "Quote not found", http.StatusNotFound)
			return
		}
		h.logError(r, "failed to delete quote", err)
		h.sendError(w, "Failed to delete quote", http.StatusInternalServerError)
		return
	}

	h.sendMessage(w, "Quote deleted", http.StatusOK)
}

func toAPIQuote(q *models.QuoteRequest) api.Quote {
	return api.Quote{
		ID:        q.ID,
		Name:      q.Name,
		Phone:     q.Phone,
		Email:     q.Email,
		Message:   q.Message,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
