package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string
	TZ      string

	RedisURL string

	MongoURI string
	DBName   string

	// Voice provider API keys. A blank key means the agency has not
	// connected that provider; it is skipped, never an error.
	RetellAPIKey     string
	VapiAPIKey       string
	ElevenLabsAPIKey string

	// Shared secrets for verifying inbound vendor webhooks.
	RetellWebhookSecret     string
	VapiWebhookSecret       string
	ElevenLabsWebhookSecret string

	ProviderTimeoutMs int

	SyncEnabled     bool
	SyncIntervalMin int
	SyncCallLimit   int

	APIRateLimitRPM int

	LogLevel           string
	CORSAllowedOrigins string

	OTELEndpoint string
	OTELEnabled  bool
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// Missing .env is fine; production runs on environment variables only.
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		TZ:      getEnv("TZ", "UTC"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "voicehub"),

		RetellAPIKey:     getEnv("RETELL_API_KEY", ""),
		VapiAPIKey:       getEnv("VAPI_API_KEY", ""),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),

		RetellWebhookSecret:     getEnv("RETELL_WEBHOOK_SECRET", ""),
		VapiWebhookSecret:       getEnv("VAPI_WEBHOOK_SECRET", ""),
		ElevenLabsWebhookSecret: getEnv("ELEVENLABS_WEBHOOK_SECRET", ""),

		ProviderTimeoutMs: getEnvInt("PROVIDER_TIMEOUT_MS", 30000),

		SyncEnabled:     getEnvBool("SYNC_ENABLED", true),
		SyncIntervalMin: getEnvInt("SYNC_INTERVAL_MIN", 15),
		SyncCallLimit:   getEnvInt("SYNC_CALL_LIMIT", 100),

		APIRateLimitRPM: getEnvInt("API_RATE_LIMIT_RPM", 180),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		OTELEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", cfg.TZ, err)
	}
	time.Local = loc

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}
