package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds the configuration of every service binary.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Kolkata"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	AMQPURL string `envconfig:"AMQP_URL"`

	OpenAI struct {
		APIKey  string `envconfig:"OPENAI_API_KEY"`
		BaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
		Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	} `envconfig:""`

	Identity struct {
		Mode      string        `envconfig:"IDENTITY_MODE" default:"local"`
		BaseURL   string        `envconfig:"IDENTITY_BASE_URL"`
		JWTSecret string        `envconfig:"JWT_SECRET"`
		TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	} `envconfig:""`

	Geo struct {
		BaseURL      string  `envconfig:"GEO_BASE_URL" default:"http://localhost:8090"`
		DefaultLabel string  `envconfig:"GEO_DEFAULT_LABEL" default:"New Delhi"`
		DefaultLat   float64 `envconfig:"GEO_DEFAULT_LAT" default:"28.6139"`
		DefaultLon   float64 `envconfig:"GEO_DEFAULT_LON" default:"77.2090"`
	} `envconfig:""`

	Insight struct {
		Language string        `envconfig:"INSIGHT_LANGUAGE" default:"en"`
		CacheTTL time.Duration `envconfig:"INSIGHT_CACHE_TTL" default:"24h"`
	} `envconfig:""`

	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`

	Queues struct {
		Delivery string `envconfig:"DELIVERY_QUEUE_KEY" default:"delivery_jobs"`
	} `envconfig:""`
}

// Load reads configuration from the environment, preloading .env when one
// is present.
func Load() AppConfig {
	_ = godotenv.Load() // ok if missing in prod
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}
