package handlers

import (
	"errors"
	"net/http"

	"github.com/iudanet/rockbridge/internal/server/auth"
)

// errorMapping задает HTTP статус и сообщение для кода ошибки auth
type errorMapping struct {
	message string
	status  int
}

const internalErrorMessage = "internal server error"

// authErrors сопоставляет коды ошибок auth.Service с ответами API
var authErrors = map[string]errorMapping{
	auth.CodeInvalidCredentials: {status: http.StatusUnauthorized, message: "Invalid credentials"},
	auth.CodeTokenMissing:       {status: http.StatusBadRequest, message: "Token required"},
	auth.CodeInvalidToken:       {status: http.StatusUnauthorized, message: "Invalid or expired token"},
	auth.CodeTokenNotRecognized: {status: http.StatusUnauthorized, message: "Token not recognized. Please login again."},
	auth.CodeUserNotFound:       {status: http.StatusNotFound, message: "User not found"},
	auth.CodeOTPInvalid:         {status: http.StatusBadRequest, message: "Invalid or expired OTP"},
	auth.CodeOTPIncorrect:       {status: http.StatusBadRequest, message: "Incorrect OTP"},
	auth.CodeOTPExpired:         {status: http.StatusBadRequest, message: "OTP expired"},
	auth.CodeNotificationFailed: {status: http.StatusBadGateway, message: "Error sending reset link"},
}

// sessionErrors перекрывает authErrors для операций с токеном сессии:
// пропавший владелец токена означает 401, а не 404
var sessionErrors = map[string]errorMapping{
	auth.CodeUserNotFound: {status: http.StatusUnauthorized, message: "User not found"},
}

// AuthErrorResponse возвращает статус и сообщение для ошибки auth.Service.
// Внутренние и неизвестные ошибки дают 500 без подробностей.
func AuthErrorResponse(err error, session bool) (int, string) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}

	code := auth.Code(err)
	if session {
		if m, ok := sessionErrors[code]; ok {
			return m.status, m.message
		}
	}
	if m, ok := authErrors[code]; ok {
		return m.status, m.message
	}

	return http.StatusInternalServerError, internalErrorMessage
}

// sendAuthError отправляет ответ для ошибки auth.Service
func (h responder) sendAuthError(w http.ResponseWriter, r *http.Request, err error, session bool) {
	status, message := AuthErrorResponse(err, session)
	if status == http.StatusInternalServerError {
		h.logError(r, "auth operation failed", err)
	}
	h.sendError(w, message, status)
}
