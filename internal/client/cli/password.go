package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/rockbridge/internal/validation"
)

var errPasswordMismatch = errors.New("passwords do not match")

// Forgot запрашивает письмо с кодом сброса пароля
func (c *Cli) Forgot(ctx context.Context, email string) error {
	msg, err := c.auth.ForgotPassword(ctx, email)
	if err != nil {
		return fmt.Errorf("password reset request failed: %w", err)
	}

	c.io.Printf("✓ %s\n", msg)
	c.io.Println("Check your inbox and run 'rbctl reset --email <email> --otp <code>'.")

	return nil
}

// Reset устанавливает новый пароль по коду из письма
func (c *Cli) Reset(ctx context.Context, email, otp string) error {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		var err error
		otp, err = c.io.ReadInput("Code from email: ")
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
	}

	password, err := c.readNewPassword()
	if err != nil {
		return err
	}

	msg, err := c.auth.ResetPassword(ctx, email, otp, password)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	c.io.Printf("✓ %s\n", msg)
	c.io.Println("All sessions were revoked. Please run 'rbctl login'.")

	return nil
}

func (c *Cli) readNewPassword() (string, error) {
	password, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return "", errPasswordMismatch
	}

	return password, nil
}
