package api

// LoginRequest представляет запрос на вход администратора
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest передает токен сессии в теле запроса (relogin, logout)
// Заголовок Authorization имеет приоритет над полем token
type TokenRequest struct {
	Token string `json:"token,omitempty"`
}

// ForgotPasswordRequest запрашивает одноразовый код сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest устанавливает новый пароль по одноразовому коду
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// User представляет публичные данные пользователя
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionResponse представляет ответ на login и relogin
type SessionResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// MeResponse представляет ответ GET /api/v1/auth/me
type MeResponse struct {
	User User `json:"user"`
}

// MessageResponse представляет ответ, состоящий из одного сообщения
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // текст HTTP статуса
	Message string `json:"message,omitempty"` // сообщение для пользователя
}
