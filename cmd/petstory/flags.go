package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/shopspring/decimal"
)

type Config struct {
	Address            string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection string        `env:"DATABASE_URI"`
	StoragePath        string        `env:"STORAGE_PATH" envDefault:"data/petstory.db"`
	UploadDir          string        `env:"UPLOAD_DIR" envDefault:"uploads"`
	FrontendBaseURL    string        `env:"FRONTEND_BASE_URL"`
	CheckoutValue      string        `env:"ASAAS_CHECKOUT_VALUE" envDefault:"29.90"`
	AsaasAPIKey        string        `env:"ASAAS_API_KEY"`
	AsaasProduction    bool          `env:"ASAAS_PRODUCTION" envDefault:"false"`
	AsaasWebhookToken  string        `env:"ASAAS_WEBHOOK_TOKEN"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL"`
	SMTPHost           string        `env:"SMTP_HOST"`
	SMTPPort           int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser           string        `env:"SMTP_USER"`
	SMTPPassword       string        `env:"SMTP_PASSWORD"`
	EmailFrom          string        `env:"EMAIL_FROM"`
	EmailFromName      string        `env:"EMAIL_FROM_NAME" envDefault:"PetStory"`
	EmailTo            string        `env:"EMAIL_TO"`
	FulfillWorkers     int           `env:"FULFILL_WORKERS" envDefault:"2"`
	FulfillInterval    time.Duration `env:"FULFILL_INTERVAL" envDefault:"1m"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string (empty: embedded sqlite)")
	fulfillWorkers := flag.Int("w", cfg.FulfillWorkers, "Size of fulfillment worker pool")
	fulfillInterval := flag.Duration("i", cfg.FulfillInterval, "Fulfillment scan interval")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.DatabaseConnection = *databaseConnection
	cfg.FulfillWorkers = *fulfillWorkers
	cfg.FulfillInterval = *fulfillInterval

	if cfg.AsaasAPIKey == "" {
		return nil, fmt.Errorf("ENV ASAAS_API_KEY must be set")
	}
	if cfg.GeminiAPIKey == "" || cfg.GeminiModel == "" {
		return nil, fmt.Errorf("ENV GEMINI_API_KEY and GEMINI_MODEL must be set")
	}

	return cfg, nil
}

// checkoutValue tolerates the comma decimal separator used in the .env
// files of the Brazilian deployment.
func (c *Config) checkoutValue() decimal.Decimal {
	v, err := decimal.NewFromString(strings.ReplaceAll(c.CheckoutValue, ",", "."))
	if err != nil {
		return decimal.RequireFromString("29.90")
	}
	return v
}
