package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"panchang-backend/internal/adapters/repo"
	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/config"
	"panchang-backend/internal/infra/db"
	"panchang-backend/internal/infra/log"
	"panchang-backend/internal/infra/metrics"
	"panchang-backend/internal/infra/queue"
	scheduleuc "panchang-backend/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: postgres connection failed")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var jobQueue domain.DeliveryQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPDeliveryQueue(cfg.AMQPURL, cfg.Queues.Delivery)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: amqp connection failed")
		}
		defer amqpQueue.Close()
		jobQueue = amqpQueue
	} else {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		jobQueue = queue.NewRedisDeliveryQueue(redisClient, cfg.Queues.Delivery)
	}

	scheduleService := scheduleuc.NewService(repoAdapter, repoAdapter, jobQueue, repoAdapter,
		logger.With().Str("component", "schedule").Logger())

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	logger.Info().Msg("scheduler: started")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: shutting down")
			return
		case now := <-ticker.C:
			queued, err := scheduleService.RunTick(ctx, now)
			if err != nil {
				logger.Error().Err(err).Msg("scheduler: tick failed")
				continue
			}
			if queued > 0 {
				logger.Info().Int("queued", queued).Msg("scheduler: deliveries enqueued")
			}
		}
	}
}
