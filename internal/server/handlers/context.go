package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

// UserKey ключ для аутентифицированного пользователя в контексте запроса
const UserKey contextKey = "user"

const bearerPrefix = "Bearer "

// WithUser возвращает контекст с аутентифицированным пользователем
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext извлекает пользователя, положенного auth middleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

func toAPIUser(u *models.User) api.User {
	p := u.Public()
	return api.User{ID: p.ID, Name: p.Name, Email: p.Email}
}
