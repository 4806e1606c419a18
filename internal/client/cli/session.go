package cli

import (
	"context"
	"fmt"
	"strings"
)

// Login запрашивает учетные данные и сохраняет новую сессию.
// Email запрашивается, если не передан флагом.
func (c *Cli) Login(ctx context.Context, email string) error {
	c.io.Println("=== Login ===")

	if strings.TrimSpace(email) == "" {
		var err error
		email, err = c.io.ReadInput("Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println("Authenticating...")

	session, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Logged in as %s <%s>\n", session.Name, session.Email)
	c.io.Printf("Server: %s\n", session.ServerURL)

	return nil
}

// Relogin меняет сохраненный токен на новый
func (c *Cli) Relogin(ctx context.Context) error {
	session, err := c.auth.Relogin(ctx)
	if err != nil {
		return sessionError(err)
	}

	c.io.Println("✓ Token refreshed")
	c.io.Printf("Logged in as %s <%s>\n", session.Name, session.Email)

	return nil
}

func (c *Cli) Logout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")

	return nil
}

// Whoami показывает пользователя текущей сессии по данным сервера
func (c *Cli) Whoami(ctx context.Context) error {
	session, err := c.auth.Current(ctx)
	if err != nil {
		return err
	}

	user, err := c.auth.Whoami(ctx)
	if err != nil {
		return sessionError(err)
	}

	c.io.Printf("ID:       %s\n", user.ID)
	c.io.Printf("Name:     %s\n", user.Name)
	c.io.Printf("Email:    %s\n", user.Email)
	c.io.Printf("Server:   %s\n", session.ServerURL)
	c.io.Printf("Since:    %s\n", session.SavedAt.Local().Format("2006-01-02 15:04:05"))

	return nil
}
