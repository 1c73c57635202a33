package utils

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port         string
	LogLevel     string
	StoreBackend string // "mongo" or "memory"
	MongoURI     string
	MongoDBName  string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	GatewayURL            string
	GatewayClientID       string
	GatewayClientSecret   string
	GatewayGoID           string
	GatewayReturnURL      string
	GatewayNotifyURL      string
	GatewayTimeout        time.Duration
	GatewayCallbackSecret string
	Currency              string

	CartMaxRetries    int
	SideEffectTimeout time.Duration

	EmailProvider    string // "postmark", "sendgrid" or "log"
	PostmarkAPIToken string
	SendGridAPIKey   string
	EmailSender      string

	KafkaBrokers     []string
	OrderEventsTopic string
}

// LoadConfig reads a .env file when present, then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found. Proceeding with environment variables.")
	}

	return Config{
		Port:         getEnv("PORT", "8000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", "mongo"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "ecommerce"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "your_secret_key"),

		GatewayURL:            getEnv("GATEWAY_URL", "https://gw.sandbox.gopay.com/api"),
		GatewayClientID:       os.Getenv("GATEWAY_CLIENT_ID"),
		GatewayClientSecret:   os.Getenv("GATEWAY_CLIENT_SECRET"),
		GatewayGoID:           os.Getenv("GATEWAY_GOID"),
		GatewayReturnURL:      os.Getenv("GATEWAY_RETURN_URL"),
		GatewayNotifyURL:      os.Getenv("GATEWAY_NOTIFY_URL"),
		GatewayTimeout:        getDuration("GATEWAY_TIMEOUT", 10*time.Second),
		GatewayCallbackSecret: os.Getenv("GATEWAY_CALLBACK_SECRET"),
		Currency:              getEnv("CURRENCY", "CZK"),

		CartMaxRetries:    getInt("CART_MAX_RETRIES", 5),
		SideEffectTimeout: getDuration("SIDE_EFFECT_TIMEOUT", 5*time.Second),

		EmailProvider:    getEnv("EMAIL_PROVIDER", "log"),
		PostmarkAPIToken: os.Getenv("POSTMARK_API_TOKEN"),
		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		EmailSender:      getEnv("EMAIL_SENDER", "shop@example.com"),

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order-events"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
