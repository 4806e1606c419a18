package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
)

// CreateUser stores a new user and indexes it by email
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users, err := bucket(tx, bucketUsers)
		if err != nil {
			return err
		}
		byEmail, err := bucket(tx, bucketUsersEmail)
		if err != nil {
			return err
		}

		if byEmail.Get([]byte(user.Email)) != nil || users.Get([]byte(user.ID)) != nil {
			return storage.ErrUserAlreadyExists
		}

		if err := putJSON(users, user.ID, user); err != nil {
			return err
		}
		if err := byEmail.Put([]byte(user.Email), []byte(user.ID)); err != nil {
			return fmt.Errorf("failed to index user email: %w", err)
		}

		return nil
	})
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User

	err := s.db.View(func(tx *bbolt.Tx) error {
		byEmail, err := bucket(tx, bucketUsersEmail)
		if err != nil {
			return err
		}

		id := byEmail.Get([]byte(email))
		if id == nil {
			return storage.ErrUserNotFound
		}

		user, err = getUser(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User

	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUser overwrites the stored user document.
// The email index is left untouched: emails are immutable.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users, err := bucket(tx, bucketUsers)
		if err != nil {
			return err
		}

		current, err := getUser(tx, user.ID)
		if err != nil {
			return err
		}

		updated := *user
		updated.Email = current.Email
		updated.CreatedAt = current.CreatedAt

		return putJSON(users, updated.ID, &updated)
	})
}

func getUser(tx *bbolt.Tx, id string) (*models.User, error) {
	users, err := bucket(tx, bucketUsers)
	if err != nil {
		return nil, err
	}

	data := users.Get([]byte(id))
	if data == nil {
		return nil, storage.ErrUserNotFound
	}

	user := &models.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return user, nil
}
