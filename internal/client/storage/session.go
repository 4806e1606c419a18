// Package storage описывает локальное хранилище сессии rbctl.
package storage

import (
	"context"
	"time"
)

// SessionStorage хранит текущую сессию администратора на клиенте
type SessionStorage interface {
	// SaveSession сохраняет сессию, заменяя предыдущую
	SaveSession(ctx context.Context, session *Session) error

	// GetSession возвращает сохраненную сессию
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession удаляет сохраненную сессию
	// Returns ErrSessionNotFound if no session exists
	DeleteSession(ctx context.Context) error
}

// Session сессия администратора. Сервер принимает только последний выданный токен,
// поэтому после relogin старый токен здесь заменяется.
type Session struct {
	SavedAt   time.Time `json:"saved_at"`
	ServerURL string    `json:"server_url"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
}
