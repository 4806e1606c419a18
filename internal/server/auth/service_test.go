package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/rockbridge/internal/crypto"
	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/jwt"
	"github.com/iudanet/rockbridge/internal/server/mailer"
	"github.com/iudanet/rockbridge/internal/server/storage"
)

// mockUserStorage is an in-memory UserStorage that copies records on every access.
type mockUserStorage struct {
	users     map[string]models.User
	getErr    error
	updateErr error
	mu        sync.Mutex
	updates   int
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	m.users[user.ID] = *user
	m.updates++
	return nil
}

func (m *mockUserStorage) stored(t *testing.T, id string) models.User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	require.True(t, ok, "user %s not stored", id)
	return u
}

func (m *mockUserStorage) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type mockNotifier struct {
	err  error
	sent []mailer.PasswordReset
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, msg mailer.PasswordReset) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	svc      *Service
	users    *mockUserStorage
	notifier *mockNotifier
	clock    *testClock
	codec    *jwt.Codec
	user     *models.User
}

const testPassword = "CorrectHorse1"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := jwt.NewCodec([]byte("test-secret"), 0, jwt.WithClock(clock.Now))
	users := newMockUserStorage()
	notifier := &mockNotifier{}

	hash, err := crypto.HashPassword(testPassword)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        "admin@rockbridge.store",
		Name:         "Admin",
		PasswordHash: hash,
		CreatedAt:    clock.now,
		UpdatedAt:    clock.now,
	}
	require.NoError(t, users.CreateUser(context.Background(), user))

	svc, err := NewService(users, codec, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{}, WithClock(clock.Now))
	require.NoError(t, err)

	return &testEnv{
		svc:      svc,
		users:    users,
		notifier: notifier,
		clock:    clock,
		codec:    codec,
		user:     user,
	}
}

func TestNewService_NilDependencies(t *testing.T) {
	codec := jwt.NewCodec([]byte("secret"), 0)
	users := newMockUserStorage()
	notifier := &mockNotifier{}

	tests := []struct {
		users       storage.UserStorage
		codec       *jwt.Codec
		notifier    ResetNotifier
		name        string
		expectError string
	}{
		{name: "nil user storage", codec: codec, notifier: notifier, expectError: "user storage is required"},
		{name: "nil codec", users: users, notifier: notifier, expectError: "token codec is required"},
		{name: "nil notifier", users: users, codec: codec, expectError: "reset notifier is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.users, tt.codec, tt.notifier, nil, Config{})
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		wantErr  error
		name     string
		email    string
		password string
		wantCode string
	}{
		{name: "empty email", password: testPassword, wantCode: CodeValidation, wantErr: ErrValidation},
		{name: "empty password", email: "admin@rockbridge.store", wantCode: CodeValidation, wantErr: ErrValidation},
		{name: "blank email", email: "   ", password: testPassword, wantCode: CodeValidation, wantErr: ErrValidation},
		{name: "unknown email", email: "nobody@rockbridge.store", password: testPassword, wantCode: CodeInvalidCredentials, wantErr: ErrInvalidCredentials},
		{name: "wrong password", email: "admin@rockbridge.store", password: "wrong-password", wantCode: CodeInvalidCredentials, wantErr: ErrInvalidCredentials},
		{name: "success", email: "admin@rockbridge.store", password: testPassword},
		{name: "email is normalized", email: "  Admin@RockBridge.store ", password: testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			session, err := env.svc.Login(ctx, tt.email, tt.password)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Nil(t, session)
				assert.Equal(t, tt.wantCode, Code(err))
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, env.users.stored(t, env.user.ID).AccessToken)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, session)
			assert.NotEmpty(t, session.Token)
			assert.Equal(t, env.user.ID, session.User.ID)

			stored := env.users.stored(t, env.user.ID)
			require.NotNil(t, stored.AccessToken)
			assert.Equal(t, session.Token, *stored.AccessToken)

			claims, err := env.codec.Validate(session.Token)
			require.NoError(t, err)
			assert.Equal(t, env.user.ID, claims.UserID)
			assert.Equal(t, env.user.Email, claims.Email)
		})
	}
}

func TestService_Login_ValidationMessage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Login(context.Background(), "", "")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Email and password required", ve.Message)
}

func TestService_Login_ReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.svc.Login(ctx, env.user.Email, testPassword)
	require.NoError(t, err)
	second, err := env.svc.Login(ctx, env.user.Email, testPassword)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = env.svc.Authenticate(ctx, first.Token)
	assert.Equal(t, CodeTokenNotRecognized, Code(err))

	user, err := env.svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, user.ID)
}

func TestService_Login_StorageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.getErr = errors.New("disk on fire")

		_, err := env.svc.Login(ctx, env.user.Email, testPassword)
		assert.Equal(t, CodeInternal, Code(err))
	})

	t.Run("save fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.updateErr = errors.New("disk on fire")

		_, err := env.svc.Login(ctx, env.user.Email, testPassword)
		assert.Equal(t, CodeInternal, Code(err))
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	session, err := env.svc.Login(ctx, env.user.Email, testPassword)
	require.NoError(t, err)

	refreshed, err := env.svc.Refresh(ctx, session.Token)
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, refreshed.Token)
	assert.Equal(t, env.user.ID, refreshed.User.ID)

	stored := env.users.stored(t, env.user.ID)
	require.NotNil(t, stored.AccessToken)
	assert.Equal(t, refreshed.Token, *stored.AccessToken)

	// старый токен больше не принимается
	_, err = env.svc.Refresh(ctx, session.Token)
	assert.Equal(t, CodeTokenNotRecognized, Code(err))
	assert.ErrorIs(t, err, ErrTokenNotRecognized)

	_, err = env.svc.Refresh(ctx, refreshed.Token)
	assert.NoError(t, err)
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		prepare  func(t *testing.T, env *testEnv) string
		name     string
		wantCode string
	}{
		{
			name:     "missing token",
			prepare:  func(t *testing.T, env *testEnv) string { return "" },
			wantCode: CodeTokenMissing,
		},
		{
			name:     "garbage token",
			prepare:  func(t *testing.T, env *testEnv) string { return "not-a-jwt" },
			wantCode: CodeInvalidToken,
		},
		{
			name: "token signed with another secret",
			prepare: func(t *testing.T, env *testEnv) string {
				other := jwt.NewCodec([]byte("other-secret"), 0, jwt.WithClock(env.clock.Now))
				token, err := other.Issue(env.user.ID, env.user.Email)
				require.NoError(t, err)
				return token
			},
			wantCode: CodeInvalidToken,
		},
		{
			name: "expired token",
			prepare: func(t *testing.T, env *testEnv) string {
				session, err := env.svc.Login(ctx, env.user.Email, testPassword)
				require.NoError(t, err)
				env.clock.Advance(jwt.DefaultTTL + time.Minute)
				return session.Token
			},
			wantCode: CodeInvalidToken,
		},
		{
			name: "user removed",
			prepare: func(t *testing.T, env *testEnv) string {
				session, err := env.svc.Login(ctx, env.user.Email, testPassword)
				require.NoError(t, err)
				env.users.remove(env.user.ID)
				return session.Token
			},
			wantCode: CodeUserNotFound,
		},
		{
			name: "valid but never stored",
			prepare: func(t *testing.T, env *testEnv) string {
				token, err := env.codec.Issue(env.user.ID, env.user.Email)
				require.NoError(t, err)
				return token
			},
			wantCode: CodeTokenNotRecognized,
		},
		{
			name: "storage failure",
			prepare: func(t *testing.T, env *testEnv) string {
				session, err := env.svc.Login(ctx, env.user.Email, testPassword)
				require.NoError(t, err)
				env.users.getErr = errors.New("connection reset")
				return session.Token
			},
			wantCode: CodeInternal,
		},
		{
			name: "current session",
			prepare: func(t *testing.T, env *testEnv) string {
				session, err := env.svc.Login(ctx, env.user.Email, testPassword)
				require.NoError(t, err)
				return session.Token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			token := tt.prepare(t, env)

			user, err := env.svc.Authenticate(ctx, token)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.wantCode, Code(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, env.user.ID, user.ID)
		})
	}
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.Logout(ctx, "")
		assert.Equal(t, CodeTokenMissing, Code(err))
	})

	t.Run("twice succeeds", func(t *testing.T) {
		env := newTestEnv(t)
		session, err := env.svc.Login(ctx, env.user.Email, testPassword)
		require.NoError(t, err)

		require.NoError(t, env.svc.Logout(ctx, session.Token))
		assert.Nil(t, env.users.stored(t, env.user.ID).AccessToken)

		require.NoError(t, env.svc.Logout(ctx, session.Token))
		assert.Nil(t, env.users.stored(t, env.user.ID).AccessToken)

		_, err = env.svc.Authenticate(ctx, session.Token)
		assert.Equal(t, CodeTokenNotRecognized, Code(err))
	})

	t.Run("invalid token is accepted", func(t *testing.T) {
		env := newTestEnv(t)
		session, err := env.svc.Login(ctx, env.user.Email, testPassword)
		require.NoError(t, err)

		require.NoError(t, env.svc.Logout(ctx, "garbage"))

		stored := env.users.stored(t, env.user.ID)
		require.NotNil(t, stored.AccessToken)
		assert.Equal(t, session.Token, *stored.AccessToken)
	})

	t.Run("stale token leaves current session", func(t *testing.T) {
		env := newTestEnv(t)
		first, err := env.svc.Login(ctx, env.user.Email, testPassword)
		require.NoError(t, err)
		second, err := env.svc.Refresh(ctx, first.Token)
		require.NoError(t, err)

		require.NoError(t, env.svc.Logout(ctx, first.Token))

		_, err = env.svc.Authenticate(ctx, second.Token)
		assert.NoError(t, err)
	})

	t.Run("save failure", func(t *testing.T) {
		env := newTestEnv(t)
		session, err := env.svc.Login(ctx, env.user.Email, testPassword)
		require.NoError(t, err)
		env.users.updateErr = errors.New("read-only")

		err = env.svc.Logout(ctx, session.Token)
		assert.Equal(t, CodeInternal, Code(err))
	})
}

func TestService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("empty email", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.ForgotPassword(ctx, " ")
		assert.Equal(t, CodeValidation, Code(err))

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Email required", ve.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.ForgotPassword(ctx, "nobody@rockbridge.store")
		assert.Equal(t, CodeUserNotFound, Code(err))
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, env.notifier.sent)
	})

	t.Run("stores code and sends link", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.svc.ForgotPassword(ctx, "ADMIN@rockbridge.store"))

		stored := env.users.stored(t, env.user.ID)
		require.NotNil(t, stored.ResetOTP)
		require.NotNil(t, stored.ResetOTPExpires)
		assert.Len(t, *stored.ResetOTP, 6)
		assert.Equal(t, env.clock.now.Add(DefaultOTPTTL), *stored.ResetOTPExpires)

		require.Len(t, env.notifier.sent, 1)
		sent := env.notifier.sent[0]
		assert.Equal(t, env.user.Email, sent.To)
		assert.Equal(t, *stored.ResetOTP, sent.Code)
		assert.Equal(t, DefaultResetURLBase+"/"+sent.Code, sent.Link)
		assert.Equal(t, "Admin", sent.Name)
		assert.Equal(t, DefaultOTPTTL, sent.TTL)
	})

	t.Run("custom reset url", func(t *testing.T) {
		env := newTestEnv(t)
		svc, err := NewService(env.users, env.codec, env.notifier, nil,
			Config{ResetURLBase: "https://example.com/reset/", OTPTTL: time.Hour},
			WithClock(env.clock.Now),
			WithOTPGenerator(func() (string, error) { return "424242", nil }),
		)
		require.NoError(t, err)

		require.NoError(t, svc.ForgotPassword(ctx, env.user.Email))
		require.Len(t, env.notifier.sent, 1)
		assert.Equal(t, "https://example.com/reset/424242", env.notifier.sent[0].Link)
		assert.Equal(t, env.clock.now.Add(time.Hour), *env.users.stored(t, env.user.ID).ResetOTPExpires)
	})

	t.Run("mail failure keeps code", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.err = errors.New("smtp: 421 try later")

		err := env.svc.ForgotPassword(ctx, env.user.Email)
		assert.Equal(t, CodeNotificationFailed, Code(err))
		assert.ErrorIs(t, err, ErrNotificationFailed)

		stored := env.users.stored(t, env.user.ID)
		assert.NotNil(t, stored.ResetOTP)
	})

	t.Run("generator failure", func(t *testing.T) {
		env := newTestEnv(t)
		svc, err := NewService(env.users, env.codec, env.notifier, nil, Config{},
			WithOTPGenerator(func() (string, error) { return "", errors.New("entropy exhausted") }))
		require.NoError(t, err)

		err = svc.ForgotPassword(ctx, env.user.Email)
		assert.Equal(t, CodeInternal, Code(err))
		assert.Empty(t, env.notifier.sent)
	})
}

func TestService_ResetPassword_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		email       string
		code        string
		newPassword string
		wantMessage string
	}{
		{name: "missing email", code: "123456", newPassword: "NewPass1!", wantMessage: "email, otp and newPassword required"},
		{name: "missing code", email: "admin@rockbridge.store", newPassword: "NewPass1!", wantMessage: "email, otp and newPassword required"},
		{name: "missing password", email: "admin@rockbridge.store", code: "123456", wantMessage: "email, otp and newPassword required"},
		{name: "short password", email: "admin@rockbridge.store", code: "123456", newPassword: "short", wantMessage: "password must be at least 8 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := env.svc.ResetPassword(ctx, tt.email, tt.code, tt.newPassword)
			require.Error(t, err)
			assert.Equal(t, CodeValidation, Code(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantMessage, ve.Message)
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	forgot := func(t *testing.T, env *testEnv) string {
		t.Helper()
		require.NoError(t, env.svc.ForgotPassword(ctx, env.user.Email))
		require.NotEmpty(t, env.notifier.sent)
		return env.notifier.sent[len(env.notifier.sent)-1].Code
	}

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.ResetPassword(ctx, "nobody@rockbridge.store", "123456", "NewPass1!")
		assert.Equal(t, CodeOTPInvalid, Code(err))
	})

	t.Run("no code requested", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.ResetPassword(ctx, env.user.Email, "123456", "NewPass1!")
		assert.Equal(t, CodeOTPInvalid, Code(err))
		assert.ErrorIs(t, err, ErrOTPInvalid)
	})

	t.Run("wrong code", func(t *testing.T) {
		env := newTestEnv(t)
		code := forgot(t, env)
		wrong := "100000"
		if code == wrong {
			wrong = "999999"
		}

		err := env.svc.ResetPassword(ctx, env.user.Email, wrong, "NewPass1!")
		assert.Equal(t, CodeOTPIncorrect, Code(err))

		// неверный код не сбрасывает сохранённый
		assert.NotNil(t, env.users.stored(t, env.user.ID).ResetOTP)
	})

	t.Run("padded code is not the code", func(t *testing.T) {
		env := newTestEnv(t)
		code := forgot(t, env)

		for _, padded := range []string{" " + code, code + "\n", " " + code + " "} {
			err := env.svc.ResetPassword(ctx, env.user.Email, padded, "NewPass1!")
			assert.Equal(t, CodeOTPIncorrect, Code(err), "%q", padded)
		}

		assert.NotNil(t, env.users.stored(t, env.user.ID).ResetOTP)
		assert.NoError(t, env.svc.ResetPassword(ctx, env.user.Email, code, "NewPass1!"))
	})

	t.Run("expired code", func(t *testing.T) {
		env := newTestEnv(t)
		code := forgot(t, env)
		env.clock.Advance(DefaultOTPTTL + time.Second)

		err := env.svc.ResetPassword(ctx, env.user.Email, code, "NewPass1!")
		assert.Equal(t, CodeOTPExpired, Code(err))
		assert.ErrorIs(t, err, ErrOTPExpired)
	})

	t.Run("code valid until expiry", func(t *testing.T) {
		env := newTestEnv(t)
		code := forgot(t, env)
		env.clock.Advance(DefaultOTPTTL)

		assert.NoError(t, env.svc.ResetPassword(ctx, env.user.Email, code, "NewPass1!"))
	})

	t.Run("round trip", func(t *testing.T) {
		env := newTestEnv(t)
		session, err := env.svc.Login(ctx, env.user.Email, testPassword)
		require.NoError(t, err)

		code := forgot(t, env)
		require.NoError(t, env.svc.ResetPassword(ctx, env.user.Email, code, "NewPass1!"))

		stored := env.users.stored(t, env.user.ID)
		assert.Nil(t, stored.ResetOTP)
		assert.Nil(t, stored.ResetOTPExpires)
		assert.Nil(t, stored.AccessToken)

		// старая сессия отозвана
		_, err = env.svc.Authenticate(ctx, session.Token)
		assert.Equal(t, CodeTokenNotRecognized, Code(err))

		// код одноразовый
		err = env.svc.ResetPassword(ctx, env.user.Email, code, "Another1!")
		assert.Equal(t, CodeOTPInvalid, Code(err))

		_, err = env.svc.Login(ctx, env.user.Email, testPassword)
		assert.Equal(t, CodeInvalidCredentials, Code(err))

		_, err = env.svc.Login(ctx, env.user.Email, "NewPass1!")
		assert.NoError(t, err)
	})

	t.Run("save failure", func(t *testing.T) {
		env := newTestEnv(t)
		code := forgot(t, env)
		env.users.updateErr = errors.New("read-only")

		err := env.svc.ResetPassword(ctx, env.user.Email, code, "NewPass1!")
		assert.Equal(t, CodeInternal, Code(err))
	})
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, CodeInternal, Code(internalError("op", errors.New("boom"))))
	assert.Equal(t, CodeValidation, Code(validationError("bad")))
}
