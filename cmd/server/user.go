package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/iocli"
	"github.com/iudanet/rockbridge/internal/crypto"
	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/validation"
)

func newUserCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}
	cmd.AddCommand(newUserCreateCmd(opts, console))
	return cmd
}

func newUserCreateCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Long: `Create an admin user. The password is prompted twice when --password is omitted.
There is no public registration: this is the only way to add users.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			if password == "" {
				if password, err = promptPassword(console); err != nil {
					return err
				}
			}

			ctx := runContext(cmd)
			store, err := server.OpenStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := createUser(ctx, store, email, name, password, time.Now().UTC())
			if err != nil {
				return err
			}

			cmd.Printf("User %s created (id %s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password; prompted when omitted")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// promptPassword спрашивает пароль дважды
func promptPassword(console iocli.IO) (string, error) {
	password, err := console.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := console.ReadPassword("Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

// createUser проверяет данные, хеширует пароль и сохраняет пользователя
func createUser(ctx context.Context, users storage.UserStorage, email, name, password string, now time.Time) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, storage.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
