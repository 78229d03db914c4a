// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is resolved once at startup and read-only afterwards.
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	HintInterval time.Duration
	ResultsDelay time.Duration
	HTTPTimeout  time.Duration
	LogLevel     logrus.Level

	// Match history. An empty RedisAddr disables publishing.
	RedisAddr    string
	RedisDB      int
	HistoryQueue string
	DatabaseURL  string
	BatchSize    int
	FlushDelay   time.Duration
}

// Load reads configuration from the environment:
//   - QUIZ_API_URL (default "http://localhost:8000/api")
//   - QUIZ_POLL_INTERVAL_MS (2000), QUIZ_HINT_INTERVAL_MS (15000),
//     QUIZ_RESULTS_DELAY_MS (3000), QUIZ_HTTP_TIMEOUT_MS (10000)
//   - LOG_LEVEL (info)
//   - REDIS_ADDR, REDIS_DB, HISTORIAN_QUEUE_NAME (quiz_results)
//   - DATABASE_URL, or POSTGRES_USER/POSTGRES_PASSWORD/PG_HOST/PG_PORT/PG_DATABASE
//   - HISTORIAN_BATCH_SIZE (20), HISTORIAN_FLUSH_MS (500)
func Load() Config {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	return Config{
		BaseURL:      getEnv("QUIZ_API_URL", "http://localhost:8000/api"),
		PollInterval: getEnvMillis("QUIZ_POLL_INTERVAL_MS", 2000),
		HintInterval: getEnvMillis("QUIZ_HINT_INTERVAL_MS", 15000),
		ResultsDelay: getEnvMillis("QUIZ_RESULTS_DELAY_MS", 3000),
		HTTPTimeout:  getEnvMillis("QUIZ_HTTP_TIMEOUT_MS", 10000),
		LogLevel:     level,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		HistoryQueue: getEnv("HISTORIAN_QUEUE_NAME", "quiz_results"),
		DatabaseURL:  databaseURL(),
		BatchSize:    getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay:   getEnvMillis("HISTORIAN_FLUSH_MS", 500),
	}
}

func databaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	if os.Getenv("PG_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvMillis(key string, def int) time.Duration {
	ms := getEnvInt(key, def)
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
