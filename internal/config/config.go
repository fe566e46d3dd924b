package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// Google. An empty or missing credentials file falls back to
	// application default credentials.
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS" envDefault:"service-account.json"`
	StagingBucket   string `env:"STAGING_BUCKET"`
	SpeechLanguage  string `env:"SPEECH_LANGUAGE" envDefault:"en-US"`

	ScratchDir        string `env:"SCRATCH_DIR"`
	FFmpegPath        string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	DownloadChunkSize int64  `env:"DOWNLOAD_CHUNK_SIZE" envDefault:"104857600"`

	// Workspaces left behind by a crashed process are removed after this. 0 = never.
	ScratchRetention time.Duration `env:"SCRATCH_RETENTION" envDefault:"6h"`

	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	PollMaxWait  time.Duration `env:"POLL_MAX_WAIT" envDefault:"1h"`

	NotifyWebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"30s"`
	NotifyWorkers    int           `env:"NOTIFY_WORKERS" envDefault:"4"`

	// 0 = unbounded.
	MaxConcurrentJobs int `env:"MAX_CONCURRENT_JOBS" envDefault:"0"`

	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"drive-transcriber"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	HTTPAddr      string
	LogLevel      string
	ScratchDir    string
	StagingBucket string
	WebhookURL    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ScratchDir != "" {
		cfg.ScratchDir = overrides.ScratchDir
	}
	if overrides.StagingBucket != "" {
		cfg.StagingBucket = overrides.StagingBucket
	}
	if overrides.WebhookURL != "" {
		cfg.NotifyWebhookURL = overrides.WebhookURL
	}

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "drive-transcriber")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.NotifyWorkers < 1 {
		cfg.NotifyWorkers = 1
	}

	return cfg, nil
}
