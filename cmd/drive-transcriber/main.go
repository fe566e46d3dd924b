package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	envFileFlag       string
	logLevelFlag      string
	scratchDirFlag    string
	stagingBucketFlag string
	webhookURLFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "drive-transcriber",
	Short: "Transcribe Google Drive videos with Cloud Speech-to-Text",
	Long: `drive-transcriber downloads a video from Google Drive, extracts a mono
16 kHz audio track with ffmpeg, transcribes it with Google Cloud
Speech-to-Text and delivers the transcript to a webhook, an MQTT topic or
stdout.

Configuration is read from the environment and an optional .env file;
flags override both.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env-file", "", "Path to .env file (default .env)")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&scratchDirFlag, "scratch-dir", "", "Directory for per-job scratch files")
	pf.StringVar(&stagingBucketFlag, "staging-bucket", "", "GCS bucket for audio too large for synchronous recognition")
	pf.StringVar(&webhookURLFlag, "webhook-url", "", "Default notification destination")

	rootCmd.AddCommand(serveCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the persistent flags over env and .env values.
func loadConfig(extra config.Overrides) (*config.Config, error) {
	extra.EnvFile = envFileFlag
	extra.LogLevel = logLevelFlag
	extra.ScratchDir = scratchDirFlag
	extra.StagingBucket = stagingBucketFlag
	extra.WebhookURL = webhookURLFlag
	return config.Load(extra)
}

// newLogger builds the root logger. Job output from `run` goes to stdout, so
// logs always go to stderr.
func newLogger(levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
}
