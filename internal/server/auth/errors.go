package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes attached to every error returned by Service.
const (
	CodeValidation         = "AUTH_VALIDATION"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeTokenMissing       = "AUTH_TOKEN_MISSING"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeTokenNotRecognized = "AUTH_TOKEN_NOT_RECOGNIZED"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
	CodeOTPInvalid         = "AUTH_OTP_INVALID"
	CodeOTPIncorrect       = "AUTH_OTP_INCORRECT"
	CodeOTPExpired         = "AUTH_OTP_EXPIRED"
	CodeNotificationFailed = "AUTH_NOTIFICATION_FAILED"
	CodeInternal           = "AUTH_INTERNAL"
)

var codes = []string{
	CodeValidation,
	CodeInvalidCredentials,
	CodeTokenMissing,
	CodeInvalidToken,
	CodeTokenNotRecognized,
	CodeUserNotFound,
	CodeOTPInvalid,
	CodeOTPIncorrect,
	CodeOTPExpired,
	CodeNotificationFailed,
	CodeInternal,
}

// Sentinel causes. Errors returned by Service wrap one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenMissing       = errors.New("token required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNotRecognized = errors.New("token not recognized")
	ErrUserNotFound       = errors.New("user not found")
	ErrOTPInvalid         = errors.New("invalid or expired otp")
	ErrOTPIncorrect       = errors.New("incorrect otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrNotificationFailed = errors.New("failed to send notification")
)

// ValidationError describes bad input. Message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Code returns the auth error code carried by err, or "" when err carries none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	for _, code := range codes {
		if oopsErr.Code() == code {
			return code
		}
	}
	return ""
}

func validationError(message string) error {
	return oops.Code(CodeValidation).Wrap(&ValidationError{Message: message})
}

func internalError(operation string, err error) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}
