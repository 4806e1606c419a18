package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/rockbridge/internal/server/auth"
	"github.com/iudanet/rockbridge/pkg/api"
)

// AuthService операции сессий и сброса пароля, реализуется auth.Service
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	auth AuthService
	responder
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, authService AuthService) *AuthHandler {
	return &AuthHandler{
		responder: newResponder(logger),
		auth:      authService,
	}
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sendAuthError(w, r, err, false)
		return
	}

	h.sendJSON(w, api.SessionResponse{
		Message:     "Login successful",
		AccessToken: session.Token,
		User:        toAPIUser(session.User),
	}, http.StatusOK)
}

// Relogin обрабатывает POST /api/v1/auth/relogin
// Токен берется из заголовка Authorization или из поля token тела запроса
func (h *AuthHandler) Relogin(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	session, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		h.sendAuthError(w, r, err, true)
		return
	}

	h.sendJSON(w, api.SessionResponse{
		Message:     "Token refreshed",
		AccessToken: session.Token,
		User:        toAPIUser(session.User),
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Неизвестный или просроченный токен не считается ошибкой
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.sendAuthError(w, r, err, true)
		return
	}

	h.sendMessage(w, "Logged out", http.StatusOK)
}

// ForgotPassword обрабатывает POST /api/v1/auth/forgot
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		h.sendAuthError(w, r, err, false)
		return
	}

	h.sendMessage(w, "Reset instructions sent to email", http.StatusOK)
}

// ResetPassword обрабатывает POST /api/v1/auth/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.sendAuthError(w, r, err, false)
		return
	}

	h.sendMessage(w, "Password reset successful", http.StatusOK)
}

// Me обрабатывает GET /api/v1/auth/me
// Пользователь кладется в контекст auth middleware
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.sendError(w, "Token required", http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, api.MeResponse{User: toAPIUser(user)}, http.StatusOK)
}

// sessionToken достает токен сессии: заголовок имеет приоритет над телом.
// Отсутствие токена передается в сервис, который вернет TokenMissing.
func (h *AuthHandler) sessionToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if token := BearerToken(r); token != "" {
		return token, true
	}

	var req api.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	return req.Token, true
}
