// Package environment reads process configuration from the environment,
// optionally seeded from a .env file.
package environment

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvConfig is everything the engine binaries read from the environment.
type EnvConfig struct {
	NatsURL     string
	NatsSubject string

	SqsRequestQueueURL  string
	SqsResponseQueueURL string
	AWSRegion           string

	Slots             int
	SlotWaitMs        int
	MaxTimeoutSeconds int
	WatchdogGraceMs   int

	ProfileFile string
}

// ReadEnvConfig loads the .env file when present and returns the config
// with defaults applied. Queue settings left empty disable the
// corresponding transport.
func ReadEnvConfig() *EnvConfig {
	// missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	return &EnvConfig{
		NatsURL:     os.Getenv("ENGINE_NATS_URL"),
		NatsSubject: getEnvDefault("ENGINE_NATS_SUBJECT", "engine.exec"),

		SqsRequestQueueURL:  os.Getenv("ENGINE_SQS_REQUEST_QUEUE_URL"),
		SqsResponseQueueURL: os.Getenv("ENGINE_SQS_RESPONSE_QUEUE_URL"),
		AWSRegion:           getEnvDefault("AWS_REGION", "eu-central-1"),

		Slots:             getEnvInt("ENGINE_SLOTS", 4),
		SlotWaitMs:        getEnvInt("ENGINE_SLOT_WAIT_MS", 2000),
		MaxTimeoutSeconds: getEnvInt("ENGINE_MAX_TIMEOUT_SEC", 30),
		WatchdogGraceMs:   getEnvInt("ENGINE_WATCHDOG_GRACE_MS", 1000),

		ProfileFile: os.Getenv("ENGINE_PROFILE_FILE"),
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
