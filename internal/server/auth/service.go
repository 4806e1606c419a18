// Package auth implements admin sessions and password reset by one-time code.
//
// A user holds at most one valid session token at a time: Login and Refresh
// overwrite it, Logout and a successful password reset clear it. A token is
// accepted only if it verifies cryptographically and equals the stored one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/iudanet/rockbridge/internal/crypto"
	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/jwt"
	"github.com/iudanet/rockbridge/internal/server/mailer"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/validation"
)

const (
	// DefaultOTPTTL is how long a reset code stays usable.
	DefaultOTPTTL = 10 * time.Minute
	// DefaultResetURLBase is the page that receives the reset code.
	DefaultResetURLBase = "https://rockbridge.store/resetpassword"
)

// ResetNotifier delivers password reset codes.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, msg mailer.PasswordReset) error
}

// Session is the result of a successful Login or Refresh.
type Session struct {
	User  *models.User
	Token string
}

// Config holds the tunables of Service.
type Config struct {
	ResetURLBase string
	OTPTTL       time.Duration
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source used for OTP expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithOTPGenerator overrides the reset code generator.
func WithOTPGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.generateOTP = gen
	}
}

// Service is the session and password reset engine.
type Service struct {
	users        storage.UserStorage
	codec        *jwt.Codec
	notifier     ResetNotifier
	logger       *slog.Logger
	now          func() time.Time
	generateOTP  func() (string, error)
	resetURLBase string
	otpTTL       time.Duration
}

// NewService creates a new Service.
func NewService(
	users storage.UserStorage,
	codec *jwt.Codec,
	notifier ResetNotifier,
	logger *slog.Logger,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if users == nil {
		return nil, errors.New("user storage is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if notifier == nil {
		return nil, errors.New("reset notifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	if cfg.ResetURLBase == "" {
		cfg.ResetURLBase = DefaultResetURLBase
	}

	s := &Service{
		users:        users,
		codec:        codec,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		generateOTP:  GenerateOTP,
		resetURLBase: strings.TrimRight(cfg.ResetURLBase, "/"),
		otpTTL:       cfg.OTPTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Login checks the credentials and starts a new session, replacing any previous one.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
		}
		return nil, internalError("GetUserByEmail", err)
	}

	if err := crypto.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
		}
		return nil, internalError("VerifyPassword", err)
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Authenticate resolves token to the user owning it.
// The token must verify and must equal the session token stored for the user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, oops.Code(CodeTokenMissing).Wrap(ErrTokenMissing)
	}

	claims, err := s.codec.Validate(token)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).Wrap(fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, oops.Code(CodeUserNotFound).With("user_id", claims.UserID).Wrap(ErrUserNotFound)
		}
		return nil, internalError("GetUserByID", err)
	}

	if !user.HasSession(token) {
		return nil, oops.Code(CodeTokenNotRecognized).With("user_id", user.ID).Wrap(ErrTokenNotRecognized)
	}

	return user, nil
}

// Refresh exchanges the current session token for a new one.
// The presented token stops being accepted.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "session refreshed", slog.String("user_id", user.ID))
	return session, nil
}

// Logout ends the session identified by token.
// Unknown, expired or already revoked tokens are accepted silently.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code(CodeTokenMissing).Wrap(ErrTokenMissing)
	}

	claims, err := s.codec.Validate(token)
	if err != nil {
		return nil
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}
		return internalError("GetUserByID", err)
	}

	if !user.HasSession(token) {
		return nil
	}

	user.ClearSession()
	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internalError("UpdateUser", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", user.ID))
	return nil
}

// ForgotPassword issues a reset code for the user and mails it.
// The code stays stored even when the mail cannot be sent.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return validationError("Email required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return oops.Code(CodeUserNotFound).Wrap(ErrUserNotFound)
		}
		return internalError("GetUserByEmail", err)
	}

	code, err := s.generateOTP()
	if err != nil {
		return internalError("GenerateOTP", err)
	}

	now := s.now().UTC()
	user.SetResetOTP(code, now.Add(s.otpTTL))
	user.UpdatedAt = now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internalError("UpdateUser", err)
	}

	msg := mailer.PasswordReset{
		To:   user.Email,
		Name: user.Name,
		Code: code,
		Link: s.resetURLBase + "/" + code,
		TTL:  s.otpTTL,
	}
	if err := s.notifier.SendPasswordReset(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to send reset code",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return oops.Code(CodeNotificationFailed).
			With("user_id", user.ID).
			Wrap(fmt.Errorf("%w: %w", ErrNotificationFailed, err))
	}

	s.logger.InfoContext(ctx, "reset code issued", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword sets a new password when code matches the stored, unexpired reset code.
// On success the reset code and the current session are revoked.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = validation.NormalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return validationError("email, otp and newPassword required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return validationError(err.Error())
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return oops.Code(CodeOTPInvalid).Wrap(ErrOTPInvalid)
		}
		return internalError("GetUserByEmail", err)
	}

	if user.ResetOTP == nil || user.ResetOTPExpires == nil {
		return oops.Code(CodeOTPInvalid).With("user_id", user.ID).Wrap(ErrOTPInvalid)
	}
	if !otpEqual(*user.ResetOTP, code) {
		return oops.Code(CodeOTPIncorrect).With("user_id", user.ID).Wrap(ErrOTPIncorrect)
	}

	now := s.now().UTC()
	if user.ResetOTPExpires.Before(now) {
		return oops.Code(CodeOTPExpired).With("user_id", user.ID).Wrap(ErrOTPExpired)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return internalError("HashPassword", err)
	}

	user.PasswordHash = hash
	user.ClearResetOTP()
	user.ClearSession()
	user.UpdatedAt = now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internalError("UpdateUser", err)
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("user_id", user.ID))
	return nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.codec.Issue(user.ID, user.Email)
	if err != nil {
		return nil, internalError("IssueToken", err)
	}

	user.SetSession(token)
	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, internalError("UpdateUser", err)
	}

	return &Session{Token: token, User: user}, nil
}
