package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/events"
	"github.com/petalandstem/storefront/internal/redisx"
)

const storeTimeout = 5 * time.Second

// AuthService is satisfied by *auth.Service.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, auth.Identity, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, adminID, current, next string) error
}

type Server struct {
	Log     *zap.Logger
	Stores  Stores
	Guard   *auth.Guard
	Auth    AuthService
	Cache   *redisx.Cache
	Redis   redis.Cmdable // checkout idempotency and the activity feed; optional
	Events  *events.Emitter
	Metrics *Metrics
	SiteURL string
}

// Routes builds the full HTTP surface.
func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Guard.OnError == nil {
		s.Guard.OnError = func(r *http.Request, err error) {
			s.Log.Warn("session lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, instrument(s.Metrics, s.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	r.Get("/robots.txt", s.robots)

	r.Route("/api", func(r chi.Router) {
		s.mountPublic(r)
		s.mountIntake(r)
		r.Route("/admin", s.mountAdminAPI)
	})
	r.Route("/admin", s.mountPages)
	return r
}

func storeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}
