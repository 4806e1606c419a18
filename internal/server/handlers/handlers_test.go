package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/rockbridge/internal/crypto"
	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/auth"
	"github.com/iudanet/rockbridge/internal/server/jwt"
	"github.com/iudanet/rockbridge/internal/server/mailer"
	"github.com/iudanet/rockbridge/internal/server/storage/sqlite"
	"github.com/iudanet/rockbridge/internal/server/upload"
	"github.com/iudanet/rockbridge/pkg/api"
)

const (
	testEmail    = "admin@rockbridge.store"
	testPassword = "Secret123!"
)

var testSecret = []byte("test-secret-key-for-handlers")

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resetNotifier запоминает отправленные коды сброса
type resetNotifier struct {
	err  error
	sent []mailer.PasswordReset
}

func (n *resetNotifier) SendPasswordReset(ctx context.Context, msg mailer.PasswordReset) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *resetNotifier) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, n.sent, "no reset mail sent")
	return n.sent[len(n.sent)-1].Code
}

// quoteNotifier запоминает заявки, по которым отправлялись письма
type quoteNotifier struct {
	err    error
	quotes []*models.QuoteRequest
}

func (n *quoteNotifier) SendQuoteNotifications(ctx context.Context, quote *models.QuoteRequest) error {
	n.quotes = append(n.quotes, quote)
	return n.err
}

type testEnv struct {
	store    *sqlite.Storage
	codec    *jwt.Codec
	blobs    *upload.LocalStore
	resets   *resetNotifier
	quotes   *quoteNotifier
	user     *models.User
	auth     *AuthHandler
	services *ServiceHandler
	media    *MediaHandler
	quote    *QuoteHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := setupTestLogger()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	hash, err := crypto.HashPassword(testPassword)
	require.NoError(t, err)
	now := time.Now().UTC()
	user := &models.User{
		ID:           "user-1",
		Email:        testEmail,
		Name:         "Admin",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateUser(ctx, user))

	codec := jwt.NewCodec(testSecret, 0)
	resets := &resetNotifier{}
	authService, err := auth.NewService(store, codec, resets, logger, auth.Config{})
	require.NoError(t, err)

	blobs, err := upload.NewLocalStore(t.TempDir(), upload.DefaultPublicBase)
	require.NoError(t, err)

	quotes := &quoteNotifier{}

	return &testEnv{
		store:    store,
		codec:    codec,
		blobs:    blobs,
		resets:   resets,
		quotes:   quotes,
		user:     user,
		auth:     NewAuthHandler(logger, authService),
		services: NewServiceHandler(logger, store, blobs, upload.ImagePolicy(0)),
		media:    NewMediaHandler(logger, store, blobs, upload.MediaPolicy(0)),
		quote:    NewQuoteHandler(logger, store, quotes),
	}
}

// login выполняет вход тестового пользователя и возвращает токен
func (e *testEnv) login(t *testing.T, password string) string {
	t.Helper()
	w := serve(e.auth.Login, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{Email: testEmail, Password: password}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.SessionResponse
	decodeBody(t, w, &resp)
	return resp.AccessToken
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	decodeBody(t, w, &resp)
	return resp.Message
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// multipartRequest собирает multipart/form-data запрос с полями и необязательным файлом
func multipartRequest(t *testing.T, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		require.NoError(t, mw.WriteField(name, fields[name]))
	}

	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		header.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// withUser имитирует запрос, прошедший auth middleware
func withUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(WithUser(req.Context(), user))
}

func withPathID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}
