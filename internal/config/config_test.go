package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"STAGING_BUCKET": "transcriber-staging",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.SpeechLanguage != "en-US" {
			t.Errorf("SpeechLanguage = %q, want en-US", cfg.SpeechLanguage)
		}
		if cfg.FFmpegPath != "ffmpeg" {
			t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.FFmpegPath)
		}
		if cfg.PollInterval != 30*time.Second {
			t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
		}
		if cfg.PollMaxWait != time.Hour {
			t.Errorf("PollMaxWait = %v, want 1h", cfg.PollMaxWait)
		}
		if cfg.DownloadChunkSize != 100*1024*1024 {
			t.Errorf("DownloadChunkSize = %d, want 100MiB", cfg.DownloadChunkSize)
		}
		if cfg.MaxConcurrentJobs != 0 {
			t.Errorf("MaxConcurrentJobs = %d, want 0", cfg.MaxConcurrentJobs)
		}
		if cfg.ScratchRetention != 6*time.Hour {
			t.Errorf("ScratchRetention = %v, want 6h", cfg.ScratchRetention)
		}
		if want := filepath.Join(os.TempDir(), "drive-transcriber"); cfg.ScratchDir != want {
			t.Errorf("ScratchDir = %q, want %q", cfg.ScratchDir, want)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.StagingBucket != "transcriber-staging" {
			t.Errorf("StagingBucket = %q, want transcriber-staging", cfg.StagingBucket)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:       "nonexistent.env",
			HTTPAddr:      ":9090",
			LogLevel:      "debug",
			ScratchDir:    "/tmp/scratch",
			StagingBucket: "override-bucket",
			WebhookURL:    "https://hooks.example.com/done",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.ScratchDir != "/tmp/scratch" {
			t.Errorf("ScratchDir = %q, want /tmp/scratch", cfg.ScratchDir)
		}
		if cfg.StagingBucket != "override-bucket" {
			t.Errorf("StagingBucket = %q, want override-bucket", cfg.StagingBucket)
		}
		if cfg.NotifyWebhookURL != "https://hooks.example.com/done" {
			t.Errorf("NotifyWebhookURL = %q", cfg.NotifyWebhookURL)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"POLL_INTERVAL": ""})
	defer cleanup()
	os.Unsetenv("POLL_INTERVAL")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("POLL_INTERVAL=5s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("POLL_INTERVAL")

	cfg, err := Load(Overrides{EnvFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"POLL_MAX_WAIT": "forever"})
	defer cleanup()

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error for unparseable POLL_MAX_WAIT")
	}
}

func TestLoadRejectsNonPositivePollInterval(t *testing.T) {
	for _, v := range []string{"0s", "-30s"} {
		cleanup := setEnvs(t, map[string]string{"POLL_INTERVAL": v})
		_, err := Load(Overrides{EnvFile: "nonexistent.env"})
		cleanup()
		if err == nil {
			t.Errorf("POLL_INTERVAL=%s: expected error", v)
		}
	}
}

func TestLoadClampsNotifyWorkers(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"NOTIFY_WORKERS": "0"})
	defer cleanup()

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NotifyWorkers != 1 {
		t.Errorf("NotifyWorkers = %d, want 1", cfg.NotifyWorkers)
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
