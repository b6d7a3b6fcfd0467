package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Hosted auth/database service
	SupabaseURL            string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey        string `envconfig:"SUPABASE_ANON_KEY" required:"true"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret              string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`
	AuthRedirectURL        string `envconfig:"AUTH_REDIRECT_URL"`
	DefaultLanguage        string `envconfig:"DEFAULT_LANGUAGE" default:"es"`

	// Demo account accepted when the hosted service rejects the sign-in
	DemoLoginEnabled bool   `envconfig:"DEMO_LOGIN_ENABLED" default:"false"`
	DemoEmail        string `envconfig:"DEMO_EMAIL" default:"demo@stepable.com"`
	DemoPassword     string `envconfig:"DEMO_PASSWORD" default:"demo123"`

	// Document storage (S3-compatible, Supabase Storage in production)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// GCP settings
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	GCPProjectIDLocal             string `envconfig:"GCP_PROJECT_ID_LOCAL"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubProgressTopic           string `envconfig:"PUBSUB_PROGRESS_TOPIC" default:"progress-events"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Achievement orchestrator settings
	AchievementQueueName      string `envconfig:"ACHIEVEMENT_QUEUE_NAME" default:"achievement_queue"`
	AchievementPollTimeoutSec int    `envconfig:"ACHIEVEMENT_POLL_TIMEOUT_SEC" default:"30"`
	AchievementPollMaxMsg     int    `envconfig:"ACHIEVEMENT_POLL_MAX_MSG" default:"1"`
}

// GetGCPProjectID returns the project for the current environment. Local
// development points at a separate project so emulator resources never touch
// production topics.
func (c *Config) GetGCPProjectID() string {
	if c.Environment == "development" && c.GCPProjectIDLocal != "" {
		return c.GCPProjectIDLocal
	}
	return c.GCPProjectID
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BridgeConfig holds the settings of the MCP bridge, which talks to the
// hosted service directly and needs neither the database nor GCP.
type BridgeConfig struct {
	SupabaseURL     string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY"`
	// Same fallback the web client reads.
	PublicAnonKey string `envconfig:"NEXT_PUBLIC_SUPABASE_ANON_KEY"`
	// Optional user session forwarded to get_user_info
	AccessToken string `envconfig:"SUPABASE_ACCESS_TOKEN"`
}

func LoadBridge() (*BridgeConfig, error) {
	var cfg BridgeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SupabaseAnonKey == "" {
		cfg.SupabaseAnonKey = cfg.PublicAnonKey
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, errors.New("SUPABASE_ANON_KEY is not set")
	}
	return &cfg, nil
}
