package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"panchang-backend/internal/adapters/almanac"
	"panchang-backend/internal/adapters/insight"
	"panchang-backend/internal/adapters/repo"
	"panchang-backend/internal/adapters/telegram"
	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/cache"
	"panchang-backend/internal/infra/config"
	"panchang-backend/internal/infra/db"
	"panchang-backend/internal/infra/log"
	"panchang-backend/internal/infra/metrics"
	"panchang-backend/internal/infra/openai"
	"panchang-backend/internal/infra/queue"
	panchanguc "panchang-backend/internal/usecase/panchang"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: postgres connection failed")
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
			logger.Fatal().Err(err).Msg("worker: amqp connection failed")
		}
		defer amqpQueue.Close()
		jobQueue = amqpQueue
	} else {
		jobQueue = queue.NewRedisDeliveryQueue(redisClient, cfg.Queues.Delivery)
	}

	var (
		dailyComposer domain.InsightComposer
		model         = "template"
	)
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, 30*time.Second)
		dailyComposer = insight.NewOpenAI(client, cfg.OpenAI.Model, 30*time.Second)
		model = cfg.OpenAI.Model
	} else {
		dailyComposer = insight.NewTemplate()
	}

	defaultLoc := domain.Location{Label: cfg.Geo.DefaultLabel, Latitude: cfg.Geo.DefaultLat, Longitude: cfg.Geo.DefaultLon}
	panchangService := panchanguc.NewService(repoAdapter, almanac.New(), repoAdapter, dailyComposer, cacheAdapter, repoAdapter,
		logger.With().Str("component", "panchang").Logger(), defaultLoc, cfg.Insight.Language, cfg.Insight.CacheTTL, model)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: bot api init failed")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	worker := &jobWorker{
		log:      logger,
		queue:    jobQueue,
		statuses: repoAdapter,
		users:    repoAdapter,
		events:   repoAdapter,
		guard:    cacheAdapter,
		panchang: panchangService,
		bot:      botAPI,
	}

	logger.Info().Msg("worker: consuming delivery queue")
	worker.Run(ctx)
	logger.Info().Msg("worker: stopped")
}

type jobWorker struct {
	log      zerolog.Logger
	queue    domain.DeliveryQueue
	statuses domain.DeliveryStatusRepo
	users    domain.UserRepo
	events   domain.EventRepo
	guard    domain.Cache
	panchang *panchanguc.Service
	bot      *tgbotapi.BotAPI
}

const maxDeliveryAttempts = 5

type jobOutcome int

const (
	jobOutcomeCompleted jobOutcome = iota
	jobOutcomeRetry
)

func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error().Err(err).Msg("worker: queue read failed")
			time.Sleep(time.Second)
			continue
		}

		jobLog := w.log.With().
			Str("job_id", job.ID).
			Int64("user", job.UserID).
			Str("cause", string(job.Cause)).
			Str("date", job.Date.Format(domain.DateLayout)).
			Logger()

		if job.ID == "" {
			jobLog.Error().Msg("worker: job without id, acking and skipping")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("worker: ack of id-less job failed")
			}
			continue
		}

		delivered, attempt, err := w.statuses.EnsureDeliveryJob(job.ID)
		if err != nil {
			jobLog.Error().Err(err).Msg("worker: job registration failed")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("worker: requeue failed")
			}
			time.Sleep(time.Second)
			continue
		}

		jobLog = jobLog.With().Int("attempt", attempt).Logger()

		if delivered {
			jobLog.Info().Msg("worker: job already delivered, acking")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("worker: ack of delivered job failed")
			}
			continue
		}

		outcome := w.handleJob(ctx, job, attempt, jobLog)

		if outcome == jobOutcomeRetry && attempt < maxDeliveryAttempts {
			jobLog.Warn().Msg("worker: delivery failed, leaving for retry")
			if err := ack(false); err != nil {
				jobLog.Error().Err(err).Msg("worker: requeue after failure failed")
			}
			continue
		}

		if outcome == jobOutcomeRetry {
			jobLog.Error().Msg("worker: attempt limit reached, closing the job")
		}

		if err := w.statuses.MarkDeliveryJobDone(job.ID); err != nil {
			jobLog.Error().Err(err).Msg("worker: marking job done failed")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("worker: requeue after status failure failed")
			}
			time.Sleep(time.Second)
			continue
		}

		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("worker: ack failed")
		}
	}
}

func (w *jobWorker) handleJob(ctx context.Context, job domain.DeliveryJob, attempt int, jobLog zerolog.Logger) jobOutcome {
	user, err := w.users.GetByID(job.UserID)
	if err != nil {
		jobLog.Error().Err(err).Msg("worker: user lookup failed")
		w.sendPlain(job.ChatID, "Your profile could not be found. Send /start to the bot and try again.")
		return jobOutcomeCompleted
	}

	if job.Date.IsZero() {
		job.Date = domain.LocalDay(time.Now(), user.Timezone)
	}

	p, err := w.panchang.ForDate(ctx, job.Date, user.Location)
	if err != nil {
		jobLog.Error().Err(err).Msg("worker: almanac build failed")
		w.sendPlain(job.ChatID, "Today's Panchang could not be prepared. Please try again later.")
		return jobOutcomeCompleted
	}
	ins := w.panchang.DailyInsight(ctx, p, user.Locale)
	message := panchanguc.FormatDaily(p, ins.Text)

	if job.Cause == domain.DeliveryCauseScheduled {
		// One scheduled message per user and day even when the scheduler
		// enqueues the slot twice.
		err = w.guard.Once(deliveryGuardKey(job.UserID, job.Date), 24*time.Hour, func() error {
			return w.sendDaily(job.ChatID, message)
		})
	} else {
		err = w.sendDaily(job.ChatID, message)
	}
	if err != nil {
		if job.Cause == domain.DeliveryCauseManual && attempt == 1 {
			w.sendPlain(job.ChatID, "The Panchang could not be delivered right now, retrying shortly.")
		}
		jobLog.Error().Err(err).Msg("worker: delivery send failed")
		return jobOutcomeRetry
	}

	metrics.DeliveriesTotal.Inc()
	w.observeDelivery(ctx, job, user, attempt)
	return jobOutcomeCompleted
}

func (w *jobWorker) observeDelivery(ctx context.Context, job domain.DeliveryJob, user domain.User, attempt int) {
	if w.events == nil {
		return
	}
	userID := user.ID
	event := domain.BusinessEvent{
		Event:  domain.EventDeliverySent,
		UserID: &userID,
		Metadata: map[string]any{
			"job_id":       job.ID,
			"cause":        string(job.Cause),
			"attempt":      attempt,
			"date":         job.Date.Format(domain.DateLayout),
			"chat_id":      job.ChatID,
			"requested_at": job.RequestedAt,
			"delivered_at": time.Now().UTC(),
		},
	}
	if err := w.events.RecordEvent(ctx, event); err != nil {
		w.log.Error().Err(err).Str("event", domain.EventDeliverySent).Msg("worker: event write failed")
	}
}

func (w *jobWorker) sendPlain(chatID int64, text string) {
	parts := telegram.SplitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		_, err := w.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			w.log.Error().Err(err).Int64("chat", chatID).Msg("worker: message send failed")
			return
		}
	}
}

func (w *jobWorker) sendDaily(chatID int64, text string) error {
	parts := telegram.SplitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := w.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func deliveryGuardKey(userID int64, date time.Time) string {
	return fmt.Sprintf("delivered:%d:%s", userID, date.Format(domain.DateLayout))
}
