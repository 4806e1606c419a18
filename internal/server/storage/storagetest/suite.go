// Package storagetest provides a behaviour suite shared by all storage backends.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
)

// Factory opens a fresh, empty backend for one test.
// The backend is closed by the suite.
type Factory func(t *testing.T) storage.Storage

// Run executes the full behaviour suite against the backend produced by newStorage.
func Run(t *testing.T, newStorage Factory) {
	t.Run("users", func(t *testing.T) { runUserTests(t, newStorage) })
	t.Run("services", func(t *testing.T) { runServiceTests(t, newStorage) })
	t.Run("media", func(t *testing.T) { runMediaTests(t, newStorage) })
	t.Run("quotes", func(t *testing.T) { runQuoteTests(t, newStorage) })
}

func open(t *testing.T, newStorage Factory) storage.Storage {
	t.Helper()
	s := newStorage(t)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewUser returns a user with a unique email and a dummy password hash.
func NewUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func runUserTests(t *testing.T, newStorage Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := open(t, newStorage)
		user := NewUser("admin@example.com")
		require.NoError(t, s.CreateUser(ctx, user))

		byEmail, err := s.GetUserByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, user.Name, byEmail.Name)
		assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
		assert.Nil(t, byEmail.AccessToken)
		assert.Nil(t, byEmail.ResetOTP)
		assert.Nil(t, byEmail.ResetOTPExpires)
		assert.WithinDuration(t, user.CreatedAt, byEmail.CreatedAt, time.Second)

		byID, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", byID.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := open(t, newStorage)
		require.NoError(t, s.CreateUser(ctx, NewUser("dup@example.com")))

		err := s.CreateUser(ctx, NewUser("dup@example.com"))
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})

	t.Run("not found", func(t *testing.T) {
		s := open(t, newStorage)

		_, err := s.GetUserByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		_, err = s.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		err = s.UpdateUser(ctx, NewUser("ghost@example.com"))
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("update session and reset fields", func(t *testing.T) {
		s := open(t, newStorage)
		user := NewUser("session@example.com")
		require.NoError(t, s.CreateUser(ctx, user))

		expires := time.Now().UTC().Add(10 * time.Minute).Truncate(time.Millisecond)
		user.SetSession("token-1")
		user.SetResetOTP("123456", expires)
		user.PasswordHash = "$2a$10$other"
		user.UpdatedAt = time.Now().UTC()
		require.NoError(t, s.UpdateUser(ctx, user))

		got, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AccessToken)
		assert.Equal(t, "token-1", *got.AccessToken)
		require.NotNil(t, got.ResetOTP)
		assert.Equal(t, "123456", *got.ResetOTP)
		require.NotNil(t, got.ResetOTPExpires)
		assert.True(t, expires.Equal(*got.ResetOTPExpires), "expiry %v != %v", expires, *got.ResetOTPExpires)
		assert.Equal(t, "$2a$10$other", got.PasswordHash)

		got.ClearSession()
		got.ClearResetOTP()
		require.NoError(t, s.UpdateUser(ctx, got))

		cleared, err := s.GetUserByEmail(ctx, "session@example.com")
		require.NoError(t, err)
		assert.Nil(t, cleared.AccessToken)
		assert.Nil(t, cleared.ResetOTP)
		assert.Nil(t, cleared.ResetOTPExpires)
	})
}

func runServiceTests(t *testing.T, newStorage Factory) {
	ctx := context.Background()

	t.Run("create list delete", func(t *testing.T) {
		s := open(t, newStorage)

		empty, err := s.ListServices(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		base := time.Now().UTC().Truncate(time.Millisecond)
		older := newService("Consulting", base.Add(-time.Hour))
		newer := newService("Installation", base)
		require.NoError(t, s.CreateService(ctx, older))
		require.NoError(t, s.CreateService(ctx, newer))

		list, err := s.ListServices(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID, "newest first")
		assert.Equal(t, older.ID, list[1].ID)
		assert.Equal(t, "services/installation.png", list[0].Image)

		deleted, err := s.DeleteService(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, older.TitleEN, deleted.TitleEN)
		assert.Equal(t, older.Image, deleted.Image)

		_, err = s.DeleteService(ctx, older.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		list, err = s.ListServices(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func runMediaTests(t *testing.T, newStorage Factory) {
	ctx := context.Background()

	t.Run("create list delete", func(t *testing.T) {
		s := open(t, newStorage)

		uploader := NewUser("uploader@example.com")
		require.NoError(t, s.CreateUser(ctx, uploader))

		base := time.Now().UTC().Truncate(time.Millisecond)
		image := newMedia(models.MediaTypeImage, "image/png", base.Add(-time.Minute))
		image.UploadedBy = uploader.ID
		video := newMedia(models.MediaTypeVideo, "video/mp4", base)
		require.NoError(t, s.CreateMedia(ctx, image))
		require.NoError(t, s.CreateMedia(ctx, video))

		list, err := s.ListMedia(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, video.ID, list[0].ID)
		assert.Equal(t, models.MediaTypeVideo, list[0].MediaType)
		assert.Empty(t, list[0].UploadedBy)
		assert.Equal(t, uploader.ID, list[1].UploadedBy)
		assert.Equal(t, int64(1024), list[1].Size)

		deleted, err := s.DeleteMedia(ctx, image.ID)
		require.NoError(t, err)
		assert.Equal(t, image.MediaKey, deleted.MediaKey)

		_, err = s.DeleteMedia(ctx, image.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func runQuoteTests(t *testing.T, newStorage Factory) {
	ctx := context.Background()

	t.Run("create list delete", func(t *testing.T) {
		s := open(t, newStorage)

		base := time.Now().UTC().Truncate(time.Millisecond)
		first := newQuote("Alice", base.Add(-2*time.Minute))
		second := newQuote("Bob", base)
		require.NoError(t, s.CreateQuote(ctx, first))
		require.NoError(t, s.CreateQuote(ctx, second))

		list, err := s.ListQuotes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Bob", list[0].Name)
		assert.Equal(t, "Alice", list[1].Name)

		require.NoError(t, s.DeleteQuote(ctx, first.ID))
		assert.ErrorIs(t, s.DeleteQuote(ctx, first.ID), storage.ErrNotFound)

		list, err = s.ListQuotes(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func newService(title string, createdAt time.Time) *models.Service {
	return &models.Service{
		ID:            uuid.NewString(),
		TitleEN:       title,
		TitleAR:       "خدمة",
		DescriptionEN: title + " description",
		DescriptionAR: "وصف",
		Image:         "services/" + lower(title) + ".png",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func newMedia(kind models.MediaType, mimeType string, createdAt time.Time) *models.Media {
	return &models.Media{
		ID:        uuid.NewString(),
		TitleEN:   string(kind),
		MediaKey:  "media/" + uuid.NewString(),
		MediaType: kind,
		MimeType:  mimeType,
		Size:      1024,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func newQuote(name string, createdAt time.Time) *models.QuoteRequest {
	return &models.QuoteRequest{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     "+971500000000",
		Email:     lower(name) + "@example.com",
		Message:   "Please send a quote",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
