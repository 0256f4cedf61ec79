package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/config"
	"github.com/petalandstem/storefront/internal/events"
	"github.com/petalandstem/storefront/internal/httpx"
	kafkax "github.com/petalandstem/storefront/internal/kafka"
	"github.com/petalandstem/storefront/internal/logx"
	"github.com/petalandstem/storefront/internal/postgres"
	"github.com/petalandstem/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMax)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// The producer outlives the HTTP server so in-flight requests can still publish.
	prodCtx, stopProducer := context.WithCancel(context.Background())
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger.Named("kafka"))
	prod.Start(prodCtx)
	defer func() {
		stopProducer()
		prod.WaitClosed()
	}()

	sessions := &auth.SessionStore{RDB: rdb, TTL: cfg.Session.TTL}
	srv := &httpx.Server{
		Log:    logger,
		Stores: httpx.NewStores(db),
		Guard: &auth.Guard{
			Sessions: sessions,
			Cookie:   cfg.Session.Cookie,
			Secure:   cfg.Session.CookieSecure,
			TTL:      cfg.Session.TTL,
			OnError: func(r *http.Request, err error) {
				logger.Warn("session lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
			},
		},
		Auth:    &auth.Service{Admins: &auth.AdminRepo{DB: db}, Sessions: sessions},
		Cache:   &redisx.Cache{RDB: rdb, TTL: cfg.CacheTTL},
		Redis:   rdb,
		Events:  &events.Emitter{Pub: prod, Producer: cfg.ServiceName, Log: logger},
		Metrics: httpx.NewMetrics(),
		SiteURL: cfg.SiteURL,
	}

	hs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
