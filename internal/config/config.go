package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	DBPath               string
	LogLevel             string
	MasteryThresholdDays int
	DefaultDailyGoal     int
	SummaryConcurrency   int
	SessionMaxAgeMinutes int
	SweepIntervalMinutes int
	ReconcileWorkerCount int
	ReconcileQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBPath:               envOr("DB_PATH", "file:studyflash.db"),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		MasteryThresholdDays: envIntOr("MASTERY_THRESHOLD_DAYS", 21),
		DefaultDailyGoal:     envIntOr("DAILY_GOAL", 20),
		SummaryConcurrency:   envIntOr("SUMMARY_CONCURRENCY", 4),
		SessionMaxAgeMinutes: envIntOr("SESSION_MAX_AGE_MIN", 720),
		SweepIntervalMinutes: envIntOr("SWEEP_INTERVAL_MIN", 30),
		ReconcileWorkerCount: envIntOr("RECONCILE_WORKER_COUNT", 1),
		ReconcileQueueSize:   envIntOr("RECONCILE_QUEUE_SIZE", 64),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
