package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"panchang-backend/internal/adapters/almanac"
	"panchang-backend/internal/adapters/geo"
	"panchang-backend/internal/adapters/identity"
	"panchang-backend/internal/adapters/insight"
	"panchang-backend/internal/adapters/repo"
	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/cache"
	"panchang-backend/internal/infra/config"
	"panchang-backend/internal/infra/db"
	httpinfra "panchang-backend/internal/infra/http"
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

	if cfg.Identity.JWTSecret == "" {
		logger.Fatal().Msg("api: JWT_SECRET is required")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: postgres connection failed")
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
			logger.Fatal().Err(err).Msg("api: amqp connection failed")
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

	var ident domain.Identity
	switch cfg.Identity.Mode {
	case "remote":
		remote, err := identity.NewClient(cfg.Identity.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: identity client failed")
		}
		ident = remote
	default:
		ident = identity.NewLocal(repoAdapter, repoAdapter, cfg.Identity.JWTSecret, cfg.Identity.TokenTTL)
	}

	locator, err := geo.NewClient(cfg.Geo.BaseURL, 10*time.Second, 24*time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: geo client failed")
	}

	defaultLoc := domain.Location{Label: cfg.Geo.DefaultLabel, Latitude: cfg.Geo.DefaultLat, Longitude: cfg.Geo.DefaultLon}
	panchangService := panchanguc.NewService(repoAdapter, almanac.New(), repoAdapter, dailyComposer, cacheAdapter, repoAdapter,
		logger.With().Str("component", "panchang").Logger(), defaultLoc, cfg.Insight.Language, cfg.Insight.CacheTTL, model)
	assistantService := assistantuc.NewService(repoAdapter, repoAdapter, answerComposer, panchangService, repoAdapter,
		logger.With().Str("component", "assistant").Logger())
	scheduleService := scheduleuc.NewService(repoAdapter, repoAdapter, jobQueue, repoAdapter,
		logger.With().Str("component", "schedule").Logger())

	h := &api{
		log:       logger.With().Str("component", "api").Logger(),
		identity:  ident,
		users:     repoAdapter,
		feedback:  repoAdapter,
		locator:   locator,
		panchang:  panchangService,
		assistant: assistantService,
		schedule:  scheduleService,
	}

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger(), cfg.CORSOrigin)
	r := srv.Router

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/v1/auth/signup", h.signUp)
	r.Post("/api/v1/auth/login", h.signIn)

	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.AuthMiddleware(cfg.Identity.JWTSecret))

		protected.Post("/api/v1/auth/logout", h.signOut)
		protected.Get("/api/v1/profile", h.getProfile)
		protected.Put("/api/v1/profile", h.updateProfile)
		protected.Get("/api/v1/panchang/today", h.panchangToday)
		protected.Get("/api/v1/panchang/{date}", h.panchangByDate)
		protected.Get("/api/v1/calendar/{year}/{month}", h.calendarMonth)
		protected.Get("/api/v1/insights/daily", h.dailyInsight)
		protected.Post("/api/v1/assistant/ask", h.ask)
		protected.Get("/api/v1/assistant/history", h.history)
		protected.Put("/api/v1/settings/delivery", h.updateDelivery)
		protected.Post("/api/v1/delivery/now", h.deliverNow)
		protected.Post("/api/v1/feedback", h.postFeedback)
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

var (
	_ domain.UserRepo       = (*repo.Postgres)(nil)
	_ domain.PanchangRepo   = (*repo.Postgres)(nil)
	_ domain.InsightRepo    = (*repo.Postgres)(nil)
	_ domain.ChatRepo       = (*repo.Postgres)(nil)
	_ domain.CredentialRepo = (*repo.Postgres)(nil)
	_ domain.FeedbackRepo   = (*repo.Postgres)(nil)
	_ domain.EventRepo      = (*repo.Postgres)(nil)
)
