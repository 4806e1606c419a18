// Package cli реализует команды консоли администратора rbctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iudanet/rockbridge/internal/client/api"
	"github.com/iudanet/rockbridge/internal/client/iocli"
	"github.com/iudanet/rockbridge/internal/client/storage"
	pkgapi "github.com/iudanet/rockbridge/pkg/api"
)

// errSessionExpired подсказывает оператору войти заново
var errSessionExpired = errors.New("session expired or revoked. Please run 'rbctl login'")

// AuthService операции auth.Service, которые использует консоль
type AuthService interface {
	Login(ctx context.Context, email, password string) (*storage.Session, error)
	Relogin(ctx context.Context) (*storage.Session, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*storage.Session, error)
	Whoami(ctx context.Context) (*pkgapi.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error)
	ListQuotes(ctx context.Context) ([]pkgapi.Quote, error)
}

type Cli struct {
	auth AuthService
	io   iocli.IO
}

func New(auth AuthService, io iocli.IO) *Cli {
	return &Cli{
		auth: auth,
		io:   io,
	}
}

// sessionError заменяет 401 от сервера понятной подсказкой
func sessionError(err error) error {
	if api.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("%w: %w", errSessionExpired, err)
	}
	return err
}
