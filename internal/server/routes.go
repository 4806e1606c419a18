package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/rockbridge/internal/server/config"
	"github.com/iudanet/rockbridge/internal/server/handlers"
	"github.com/iudanet/rockbridge/internal/server/middleware"
	"github.com/iudanet/rockbridge/internal/server/upload"
)

type router struct {
	cfg      *config.Config
	logger   *slog.Logger
	limiter  *middleware.RateLimiter
	metrics  *middleware.Metrics
	registry *prometheus.Registry
	blobs    upload.BlobStore
	authGate func(http.Handler) http.Handler
	auth     *handlers.AuthHandler
	services *handlers.ServiceHandler
	media    *handlers.MediaHandler
	quotes   *handlers.QuoteHandler
	health   *handlers.HealthHandler
}

// handler регистрирует маршруты и оборачивает их общими middleware
func (rt *router) handler() http.Handler {
	mux := http.NewServeMux()
	apiPrefix := rt.cfg.Server.APIPrefix
	healthPath := apiPrefix + "/health"

	// Auth: вход и сброс пароля ограничены по частоте
	mux.Handle("POST "+apiPrefix+"/auth/login", rt.limited(rt.jsonBody(rt.auth.Login)))
	mux.Handle("POST "+apiPrefix+"/auth/relogin", rt.limited(rt.jsonBody(rt.auth.Relogin)))
	mux.Handle("POST "+apiPrefix+"/auth/logout", rt.jsonBody(rt.auth.Logout))
	mux.Handle("POST "+apiPrefix+"/auth/forgot", rt.limited(rt.jsonBody(rt.auth.ForgotPassword)))
	mux.Handle("POST "+apiPrefix+"/auth/reset", rt.limited(rt.jsonBody(rt.auth.ResetPassword)))
	mux.Handle("GET "+apiPrefix+"/auth/me", rt.authGate(http.HandlerFunc(rt.auth.Me)))

	// Каталог услуг
	mux.HandleFunc("GET "+apiPrefix+"/services", rt.services.List)
	mux.Handle("POST "+apiPrefix+"/services", rt.authGate(http.HandlerFunc(rt.services.Create)))
	mux.Handle("DELETE "+apiPrefix+"/services/{id}", rt.authGate(http.HandlerFunc(rt.services.Delete)))

	// Медиатека
	mux.HandleFunc("GET "+apiPrefix+"/media", rt.media.List)
	mux.Handle("POST "+apiPrefix+"/media", rt.authGate(http.HandlerFunc(rt.media.Create)))
	mux.Handle("DELETE "+apiPrefix+"/media/{id}", rt.authGate(http.HandlerFunc(rt.media.Delete)))

	// Заявки: создать может любой, читать и удалять только администратор
	mux.Handle("POST "+apiPrefix+"/quotes", rt.jsonBody(rt.quotes.Create))
	mux.Handle("GET "+apiPrefix+"/quotes", rt.authGate(http.HandlerFunc(rt.quotes.List)))
	mux.Handle("DELETE "+apiPrefix+"/quotes/{id}", rt.authGate(http.HandlerFunc(rt.quotes.Delete)))

	mux.HandleFunc("GET "+healthPath, rt.health.Health)

	skipLog := []string{healthPath}
	if rt.cfg.Metrics.Enabled {
		mux.Handle("GET "+rt.cfg.Metrics.Path, promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{
			Registry:          rt.registry,
			EnableOpenMetrics: true,
		}))
		skipLog = append(skipLog, rt.cfg.Metrics.Path)
	}

	if local, ok := rt.blobs.(*upload.LocalStore); ok && strings.HasPrefix(rt.cfg.Uploads.PublicBase, "/") {
		base := strings.TrimSuffix(rt.cfg.Uploads.PublicBase, "/")
		mux.Handle("GET "+base+"/", http.StripPrefix(base, noDirListing(http.FileServer(http.Dir(local.Dir())))))
	}

	var h http.Handler = mux
	h = cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(h)
	h = middleware.RecoveryMiddleware(rt.logger)(h)
	h = middleware.LoggingMiddleware(rt.logger, skipLog...)(h)
	h = rt.metrics.Middleware(h)

	return h
}

// limited применяет rate limiter, если он включен
func (rt *router) limited(next http.Handler) http.Handler {
	if rt.limiter == nil {
		return next
	}
	return rt.limiter.Middleware(next)
}

// jsonBody ограничивает размер JSON тела. Для multipart лимит задает сам handler.
func (rt *router) jsonBody(fn http.HandlerFunc) http.Handler {
	return middleware.LimitBody(rt.cfg.Server.MaxBodyBytes)(fn)
}

// noDirListing отвечает 404 на запросы каталогов
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
