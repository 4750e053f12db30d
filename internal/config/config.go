package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Tenant config service settings
	ConfigServiceBaseURL    string `envconfig:"CONFIG_SERVICE_BASE_URL"`
	ConfigServiceAPIKey     string `envconfig:"CONFIG_SERVICE_API_KEY"`
	ConfigServiceTimeoutSec int    `envconfig:"CONFIG_SERVICE_TIMEOUT_SEC" default:"10"`
	TenantDefaultsPath      string `envconfig:"TENANT_DEFAULTS_PATH" default:"configs/tenant-defaults.json"`
	TenantSyncSchedule      string `envconfig:"TENANT_SYNC_SCHEDULE" default:"@every 15m"`

	// Push endpoint settings (config service -> backend)
	PushAudienceURL         string `envconfig:"PUSH_AUDIENCE_URL"`
	PushServiceAccountEmail string `envconfig:"PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Cache settings
	CacheTTLSec   int `envconfig:"CACHE_TTL_SEC" default:"300"`
	CacheSweepSec int `envconfig:"CACHE_SWEEP_SEC" default:"600"`

	// Event fan-out settings
	GCPProjectID string `envconfig:"GCP_PROJECT_ID"`
	EventTopic   string `envconfig:"EVENT_TOPIC"`

	// Notifier plugin settings
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	SenderEmail    string `envconfig:"SENDER_EMAIL" default:"no-reply@lms.local"`
	SenderName     string `envconfig:"SENDER_NAME" default:"LMS"`

	// Presigned URL lifetime
	PresignExpirySec int `envconfig:"PRESIGN_EXPIRY_SEC" default:"900"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
