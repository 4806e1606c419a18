package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/handlers"
	"github.com/iudanet/rockbridge/pkg/api"
)

// maxTokenBody ограничивает чтение JSON тела при поиске поля token
const maxTokenBody = 64 << 10

// Authenticator проверяет токен сессии, реализуется auth.Service
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware создает middleware для проверки токена сессии.
// Токен ищется в заголовке Authorization, затем в поле token JSON тела, затем в query.
// Токен должен совпадать с сохраненным у пользователя; пользователь кладется в контекст.
func AuthMiddleware(logger *slog.Logger, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			if token == "" {
				logger.WarnContext(r.Context(), "missing session token", "path", r.URL.Path)
				writeJSONError(w, logger, "No token provided", http.StatusUnauthorized)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				status, message := handlers.AuthErrorResponse(err, true)
				if status == http.StatusInternalServerError {
					logger.ErrorContext(r.Context(), "authentication failed", "error", err)
				} else {
					logger.WarnContext(r.Context(), "rejected session token", "error", err, "path", r.URL.Path)
				}
				writeJSONError(w, logger, message, status)
				return
			}

			logger.DebugContext(r.Context(), "User authenticated", "user_id", user.ID)

			next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
		})
	}
}

// requestToken извлекает токен из запроса. Прочитанное JSON тело возвращается в r.Body.
func requestToken(r *http.Request) string {
	if token := handlers.BearerToken(r); token != "" {
		return token
	}

	if r.Body != nil && isJSON(r) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
		r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(body), r.Body), Closer: r.Body}
		if err == nil {
			var req api.TokenRequest
			if json.Unmarshal(body, &req) == nil && req.Token != "" {
				return req.Token
			}
		}
	}

	return r.URL.Query().Get("token")
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

type readCloser struct {
	io.Reader
	io.Closer
}

// writeJSONError отправляет ошибку в формате api.ErrorResponse
func writeJSONError(w http.ResponseWriter, logger *slog.Logger, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := api.ErrorResponse{Error: http.StatusText(status), Message: message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}
