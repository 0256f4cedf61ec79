package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petalandstem/storefront/internal/config"
	"github.com/petalandstem/storefront/internal/events"
	kafkax "github.com/petalandstem/storefront/internal/kafka"
	"github.com/petalandstem/storefront/internal/logx"
	"github.com/petalandstem/storefront/internal/notify"
	"github.com/petalandstem/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.ServiceName += "-notifier"
	logger, err := logx.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

	svc := &notify.Service{Redis: rdb, ServiceName: cfg.ServiceName, Log: logger}
	topics := events.Topics()
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.Notifier.Group, topics, cfg.Notifier.Workers, logger.Named("kafka"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("notifier consuming",
			zap.String("group", cfg.Notifier.Group),
			zap.Strings("topics", topics),
			zap.Int("workers", cfg.Notifier.Workers))
		return cons.Start(gctx, svc.Handle)
	})
	if err := g.Wait(); err != nil {
		logger.Fatal("consumer exited", zap.Error(err))
	}
	logger.Info("notifier stopped")
}
