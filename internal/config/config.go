package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPublicKeyPath  string
	JWTPrivateKeyPath string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	WebhookTimeout time.Duration

	// Contact endpoint templates; "{userId}" expands to the user id.
	// An empty template disables the channel's endpoint resolution.
	ContactEmailTemplate      string
	ContactPhoneTemplate      string
	ContactPushTargetTemplate string
	ContactWebhookTemplate    string

	// Delivery retry policy.
	MaxDeliveryRetries int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	RetrySweepInterval time.Duration
	SendTimeout        time.Duration

	// Notifications stuck pending past this TTL are marked failed.
	PendingTTL time.Duration

	// WebSocket connection handling.
	HeartbeatInterval time.Duration // expected client interval; eviction at 3x
	WSBufferCap       int
	WSBufferPolicy    string // drop_oldest | reject_new

	RateLimitPerMin int
	AllowedOrigins  []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each aggregate.
type DynamoTables struct {
	Events           string
	Subscriptions    string
	Preferences      string
	Notifications    string
	DeliveryAttempts string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Events:           getEnv("DYNAMO_TABLE_EVENTS", "events"),
			Subscriptions:    getEnv("DYNAMO_TABLE_SUBSCRIPTIONS", "subscriptions"),
			Preferences:      getEnv("DYNAMO_TABLE_PREFERENCES", "preferences"),
			Notifications:    getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			DeliveryAttempts: getEnv("DYNAMO_TABLE_DELIVERY_ATTEMPTS", "delivery_attempts"),
		},

		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		WebhookTimeout: getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		ContactEmailTemplate:      getEnv("CONTACT_EMAIL_TEMPLATE", ""),
		ContactPhoneTemplate:      getEnv("CONTACT_PHONE_TEMPLATE", ""),
		ContactPushTargetTemplate: getEnv("CONTACT_PUSH_TARGET_TEMPLATE", ""),
		ContactWebhookTemplate:    getEnv("CONTACT_WEBHOOK_TEMPLATE", ""),

		MaxDeliveryRetries: getEnvInt("MAX_DELIVERY_RETRIES", 5),
		RetryBaseDelay:     getEnvDuration("RETRY_BASE_DELAY", 30*time.Second),
		RetryMaxDelay:      getEnvDuration("RETRY_MAX_DELAY", 8*time.Hour),
		RetrySweepInterval: getEnvDuration("RETRY_SWEEP_INTERVAL", 30*time.Second),
		SendTimeout:        getEnvDuration("SEND_TIMEOUT", 10*time.Second),

		PendingTTL: getEnvDuration("NOTIFICATION_PENDING_TTL", 72*time.Hour),

		HeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		WSBufferCap:       getEnvInt("WS_BUFFER_CAP", 1000),
		WSBufferPolicy:    getEnv("WS_BUFFER_POLICY", "drop_oldest"),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 1000),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
