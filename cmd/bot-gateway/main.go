package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"panchang-backend/internal/adapters/almanac"
	"panchang-backend/internal/adapters/bot"
	"panchang-backend/internal/adapters/geo"
	"panchang-backend/internal/adapters/insight"
	"panchang-backend/internal/adapters/repo"
	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/cache"
	"panchang-backend/internal/infra/config"
	"panchang-backend/internal/infra/db"
	"panchang-backend/internal/infra/log"
	"panchang-backend/internal/infra/metrics"
	"panchang-backend/internal/infra/openai"
	"panchang-backend/internal/infra/queue"
	assistantuc "panchang-backend/internal/usecase/assistant"
	panchanguc "panchang-backend/internal/usecase/panchang"
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
		logger.Fatal().Err(err).Msg("bot-gateway: postgres connection failed")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cacheAdapter := cache.NewRedis(redisClient)

	var jobQueue domain.DeliveryQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPDeliveryQueue(cfg.AMQPURL, cfg.Queues.Delivery)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot-gateway: amqp connection failed")
		}
		defer amqpQueue.Close()
		jobQueue = amqpQueue
	} else {
		jobQueue = queue.NewRedisDeliveryQueue(redisClient, cfg.Queues.Delivery)
	}

	var (
		dailyComposer  domain.InsightComposer
		answerComposer domain.AnswerComposer
		model          = "template"
	)
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, 30*time.Second)
		ai := insight.NewOpenAI(client, cfg.OpenAI.Model, 30*time.Second)
		dailyComposer, answerComposer = ai, ai
		model = cfg.OpenAI.Model
	} else {
		tpl := insight.NewTemplate()
		dailyComposer, answerComposer = tpl, tpl
	}

	locator, err := geo.NewClient(cfg.Geo.BaseURL, 10*time.Second, 24*time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: geo client failed")
	}

	defaultLoc := domain.Location{Label: cfg.Geo.DefaultLabel, Latitude: cfg.Geo.DefaultLat, Longitude: cfg.Geo.DefaultLon}
	panchangService := panchanguc.NewService(repoAdapter, almanac.New(), repoAdapter, dailyComposer, cacheAdapter, repoAdapter,
		logger.With().Str("component", "panchang").Logger(), defaultLoc, cfg.Insight.Language, cfg.Insight.CacheTTL, model)
	assistantService := assistantuc.NewService(repoAdapter, repoAdapter, answerComposer, panchangService, repoAdapter,
		logger.With().Str("component", "assistant").Logger())
	scheduleService := scheduleuc.NewService(repoAdapter, repoAdapter, jobQueue, repoAdapter,
		logger.With().Str("component", "schedule").Logger())

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: bot api init failed")
	}
	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot-gateway: invalid webhook url")
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Error().Err(err).Msg("bot-gateway: webhook registration failed")
		}
	}

	h := bot.NewHandler(botAPI, logger, panchangService, assistantService, scheduleService, repoAdapter, repoAdapter, locator)

	r := chi.NewRouter()
	r.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		logger.Info().Msg("bot-gateway: started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("bot-gateway: server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("bot-gateway: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
