// Package config loads process configuration from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Topics names the four saga channels. Every message is keyed by order id so
// all traffic for one order lands on the same partition.
type Topics struct {
	PaymentRequest             string
	PaymentResponse            string
	RestaurantApprovalRequest  string
	RestaurantApprovalResponse string
}

type Outbox struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Config struct {
	Env          string
	ServiceName  string
	HTTPAddr     string
	DatabasePath string
	KafkaBrokers []string
	GroupID      string
	RedisAddr    string
	Topics       Topics
	Outbox       Outbox
	SeedDemoData bool
}

// Load reads the configuration for the named service. A missing .env file is
// not an error.
func Load(service string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", service),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/"+service+".db"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		GroupID:      getEnv("KAFKA_GROUP_ID", service),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		Topics: Topics{
			PaymentRequest:             getEnv("PAYMENT_REQUEST_TOPIC", "payment-request"),
			PaymentResponse:            getEnv("PAYMENT_RESPONSE_TOPIC", "payment-response"),
			RestaurantApprovalRequest:  getEnv("RESTAURANT_APPROVAL_REQUEST_TOPIC", "restaurant-approval-request"),
			RestaurantApprovalResponse: getEnv("RESTAURANT_APPROVAL_RESPONSE_TOPIC", "restaurant-approval-response"),
		},
	}

	var err error
	if cfg.Outbox.PollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Outbox.InitialBackoff, err = getDuration("OUTBOX_INITIAL_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Outbox.MaxBackoff, err = getDuration("OUTBOX_MAX_BACKOFF", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Outbox.BatchSize, err = getInt("OUTBOX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.Outbox.MaxAttempts, err = getInt("OUTBOX_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.SeedDemoData, err = getBool("SEED_DEMO_DATA", false); err != nil {
		return nil, err
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("config: KAFKA_BROKERS is required")
	}
	if cfg.Outbox.BatchSize <= 0 || cfg.Outbox.MaxAttempts <= 0 {
		return nil, fmt.Errorf("config: outbox batch size and max attempts must be positive")
	}
	if cfg.Outbox.PollInterval <= 0 {
		return nil, fmt.Errorf("config: OUTBOX_POLL_INTERVAL must be positive, got %s", cfg.Outbox.PollInterval)
	}
	if cfg.Outbox.InitialBackoff < 0 || cfg.Outbox.MaxBackoff < 0 {
		return nil, fmt.Errorf("config: outbox backoff must not be negative")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
