package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	// MinPasswordLen минимальная длина пароля администратора
	MinPasswordLen = 8
	// MaxPasswordLen максимальная длина пароля в байтах (ограничение bcrypt)
	MaxPasswordLen = 72
	// MaxEmailLen максимальная длина email (RFC 5321)
	MaxEmailLen = 254
)

// NormalizeEmail приводит email к каноничному виду: без пробелов и в нижнем регистре.
// Все поиски пользователя по email выполняются по нормализованному значению.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет, что email не пустой и синтаксически корректный.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email %q is not a valid address", email)
	}

	return nil
}

// ValidatePassword проверяет требования к паролю администратора.
// Длина: 8-72 байта
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// RequireFields returns an error naming every empty field.
// Fields are checked after trimming whitespace; order follows names.
func RequireFields(names []string, values map[string]string) error {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}
