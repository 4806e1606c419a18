// Package handlers содержит HTTP обработчики REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/iudanet/rockbridge/pkg/api"
)

// responder отправляет JSON ответы и логирует ошибки сериализации
type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// sendMessage отправляет ответ из одного сообщения
func (h responder) sendMessage(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.MessageResponse{Message: message}, statusCode)
}

// logError пишет ошибку в лог вместе с кодом и контекстом oops, если они есть
func (h responder) logError(r *http.Request, msg string, err error) {
	attrs := []any{slog.Any("error", err)}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, slog.Any("code", code))
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, slog.Any("context", ctx))
		}
	}
	attrs = append(attrs, slog.String("method", r.Method), slog.String("path", r.URL.Path))
	h.logger.ErrorContext(r.Context(), msg, attrs...)
}

// decodeJSON читает тело запроса в v. Пустое тело не считается ошибкой.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
