package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fundraiser/internal/infra"
	"fundraiser/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	if rdb == nil {
		logger.Fatal().Msg("worker: REDIS_ADDR is required")
	}
	defer rdb.Close()

	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "worker"
	}
	consumer := notify.NewConsumer(rdb, cfg.RedisStream, cfg.RedisGroup, name, logger)
	if err := consumer.Ensure(ctx); err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to create consumer group")
	}

	logger.Info().Str("stream", cfg.RedisStream).Str("group", cfg.RedisGroup).Str("consumer", name).Msg("worker: started")
	err = consumer.Run(ctx, func(_ context.Context, d notify.Delivery) error {
		logger.Info().
			Str("entry", d.ID).
			Str("type", d.Envelope.Type).
			Time("emitted_at", d.Envelope.EmittedAt).
			RawJSON("data", d.Envelope.Data).
			Msg("worker: event delivered")
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
