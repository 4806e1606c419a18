// Package server собирает зависимости Rockbridge API и управляет жизненным циклом HTTP сервера.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iudanet/rockbridge/internal/server/auth"
	"github.com/iudanet/rockbridge/internal/server/config"
	"github.com/iudanet/rockbridge/internal/server/handlers"
	"github.com/iudanet/rockbridge/internal/server/jwt"
	"github.com/iudanet/rockbridge/internal/server/mailer"
	"github.com/iudanet/rockbridge/internal/server/middleware"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/server/upload"
)

// Server HTTP сервер Rockbridge со всеми зависимостями
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      storage.Storage
	blobs      upload.BlobStore
	limiter    *middleware.RateLimiter
	registry   *prometheus.Registry
	httpServer *http.Server
}

// Option настраивает Server
type Option func(*deps)

// deps зависимости, которые можно подменить в тестах
type deps struct {
	store    storage.Storage
	notifier mailer.Notifier
	blobs    upload.BlobStore
}

// WithStorage использует готовое хранилище вместо открытия по конфигурации
func WithStorage(store storage.Storage) Option {
	return func(d *deps) {
		d.store = store
	}
}

// WithNotifier использует готового отправителя писем
func WithNotifier(notifier mailer.Notifier) Option {
	return func(d *deps) {
		d.notifier = notifier
	}
}

// WithBlobStore использует готовое хранилище файлов
func WithBlobStore(blobs upload.BlobStore) Option {
	return func(d *deps) {
		d.blobs = blobs
	}
}

// New создает сервер по конфигурации. Хранилище закрывается в Close.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string, opts ...Option) (*Server, error) {
	var d deps
	for _, opt := range opts {
		opt(&d)
	}

	var err error
	if d.store == nil {
		if d.store, err = OpenStorage(ctx, cfg.Storage); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  d.store,
	}

	if err := s.init(ctx, d, version); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Server) init(ctx context.Context, d deps, version string) error {
	var err error
	if d.notifier == nil {
		if d.notifier, err = newNotifier(s.cfg.Mail, s.logger); err != nil {
			return err
		}
	}
	if d.blobs == nil {
		if d.blobs, err = newBlobStore(ctx, s.cfg.Uploads); err != nil {
			return err
		}
	}
	s.blobs = d.blobs

	mail := mailer.New(d.notifier, s.cfg.Mail.AdminTo, s.logger)
	codec := jwt.NewCodec([]byte(s.cfg.Auth.JWTSecret), s.cfg.Auth.TokenTTL)
	authService, err := auth.NewService(s.store, codec, mail, s.logger, auth.Config{
		ResetURLBase: s.cfg.Auth.ResetURLBase,
		OTPTTL:       s.cfg.Auth.OTPTTL,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(collectors.NewGoCollector())
	s.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(s.registry)

	if s.cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window, s.logger,
			middleware.WithOnReject(metrics.RecordRateLimited))
	}

	r := &router{
		cfg:      s.cfg,
		logger:   s.logger,
		limiter:  s.limiter,
		metrics:  metrics,
		registry: s.registry,
		blobs:    s.blobs,
		authGate: middleware.AuthMiddleware(s.logger, authService),
		auth:     handlers.NewAuthHandler(s.logger, authService),
		services: handlers.NewServiceHandler(s.logger, s.store, s.blobs, upload.ImagePolicy(s.cfg.Uploads.ImageMaxBytes)),
		media:    handlers.NewMediaHandler(s.logger, s.store, s.blobs, upload.MediaPolicy(s.cfg.Uploads.MediaMaxBytes)),
		quotes:   handlers.NewQuoteHandler(s.logger, s.store, mail),
		health:   handlers.NewHealthHandler(s.logger, s.store, version),
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      r.handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	return nil
}

// Handler возвращает корневой HTTP handler со всеми маршрутами и middleware
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run слушает cfg.Server.Addr до отмены ctx, затем корректно останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve обслуживает запросы на listener до отмены ctx
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("Server started",
		slog.String("addr", listener.Addr().String()),
		slog.String("storage", s.cfg.Storage.Driver),
		slog.String("uploads", s.cfg.Uploads.Driver),
		slog.String("mail", s.cfg.Mail.Driver))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", slog.Duration("timeout", s.cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Close останавливает rate limiter и закрывает хранилище. Вызывается после Run.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
