// Package auth управляет сессией администратора в rbctl: вход, обновление токена,
// выход и сброс пароля через Rockbridge API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/rockbridge/internal/client/storage"
	"github.com/iudanet/rockbridge/internal/validation"
	pkgapi "github.com/iudanet/rockbridge/pkg/api"
)

// ErrNotAuthenticated возвращается, если локальной сессии нет
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'rbctl login' first")

// APIClient часть api.Client, нужная сервису
type APIClient interface {
	BaseURL() string
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.SessionResponse, error)
	Relogin(ctx context.Context, token string) (*pkgapi.SessionResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*pkgapi.MeResponse, error)
	ForgotPassword(ctx context.Context, req pkgapi.ForgotPasswordRequest) (*pkgapi.MessageResponse, error)
	ResetPassword(ctx context.Context, req pkgapi.ResetPasswordRequest) (*pkgapi.MessageResponse, error)
	ListQuotes(ctx context.Context, token string) ([]pkgapi.Quote, error)
}

// Service предоставляет функции авторизации
type Service struct {
	client APIClient
	store  storage.SessionStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(client APIClient, store storage.SessionStorage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Login выполняет вход и сохраняет сессию
func (s *Service) Login(ctx context.Context, email, password string) (*storage.Session, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	resp, err := s.client.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return s.save(ctx, resp)
}

// Relogin обменивает сохраненный токен на новый. Старый токен сервер больше не примет.
func (s *Service) Relogin(ctx context.Context) (*storage.Session, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Relogin(ctx, session.Token)
	if err != nil {
		return nil, fmt.Errorf("relogin failed: %w", err)
	}

	return s.save(ctx, resp)
}

// Logout завершает сессию на сервере и удаляет локальную.
// Локальная сессия удаляется, даже если сервер недоступен.
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.Current(ctx)
	if err != nil {
		return err
	}

	if err := s.client.Logout(ctx, session.Token); err != nil {
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	if err := s.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

// Whoami возвращает пользователя сохраненной сессии по данным сервера
func (s *Service) Whoami(ctx context.Context) (*pkgapi.User, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Me(ctx, session.Token)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ForgotPassword запрашивает письмо с кодом сброса
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}

	resp, err := s.client.ForgotPassword(ctx, pkgapi.ForgotPasswordRequest{Email: email})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword меняет пароль по коду из письма. Сохраненная сессия после этого недействительна.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	resp, err := s.client.ResetPassword(ctx, pkgapi.ResetPasswordRequest{
		Email:       validation.NormalizeEmail(email),
		OTP:         otp,
		NewPassword: newPassword,
	})
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteSession(ctx); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		s.logger.WarnContext(ctx, "failed to delete local session", slog.Any("error", err))
	}

	return resp.Message, nil
}

// ListQuotes возвращает заявки от имени сохраненной сессии
func (s *Service) ListQuotes(ctx context.Context) ([]pkgapi.Quote, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListQuotes(ctx, session.Token)
}

// Current возвращает сохраненную сессию или ErrNotAuthenticated
func (s *Service) Current(ctx context.Context) (*storage.Session, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read local session: %w", err)
	}
	return session, nil
}

func (s *Service) save(ctx context.Context, resp *pkgapi.SessionResponse) (*storage.Session, error) {
	session := &storage.Session{
		ServerURL: s.client.BaseURL(),
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Name:      resp.User.Name,
		Token:     resp.AccessToken,
		SavedAt:   s.now().UTC(),
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}
