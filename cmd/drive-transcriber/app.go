package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/config"
	"github.com/snarg/drive-transcriber/internal/gcp"
	"github.com/snarg/drive-transcriber/internal/jobs"
	"github.com/snarg/drive-transcriber/internal/media"
	"github.com/snarg/drive-transcriber/internal/mqttclient"
	"github.com/snarg/drive-transcriber/internal/notify"
	"github.com/snarg/drive-transcriber/internal/poll"
	"github.com/snarg/drive-transcriber/internal/storage"
	"github.com/snarg/drive-transcriber/internal/transcribe"
)

// app holds the long-lived clients and the job runner shared by commands.
type app struct {
	clients *gcp.Clients
	mqtt    *mqttclient.Client
	runner  *jobs.Runner
	scratch *storage.ScratchRoot

	ffmpegAvailable   bool
	stagingConfigured bool
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, stdout io.Writer) (*app, error) {
	a := &app{}

	clients, err := gcp.NewClients(ctx, cfg.CredentialsFile, cfg.StagingBucket != "",
		log.With().Str("component", "gcp").Logger())
	if err != nil {
		return nil, err
	}
	a.clients = clients

	// Staging store (async strategy only)
	var store storage.ObjectStore
	if cfg.StagingBucket != "" {
		storeLog := log.With().Str("component", "staging").Str("bucket", cfg.StagingBucket).Logger()
		gs := storage.NewGCSStore(clients.Storage, cfg.StagingBucket, storeLog)
		if err := gs.CheckBucket(ctx); err != nil {
			storeLog.Warn().Err(err).Msg("staging bucket check failed")
		}
		store = gs
		a.stagingConfigured = true
	} else {
		log.Warn().Msg("STAGING_BUCKET not set; audio over 10 MiB cannot be transcribed")
	}

	// MQTT (optional notification sink)
	var mqttSink notify.Sink
	if cfg.MQTTBrokerURL != "" {
		mqttLog := log.With().Str("component", "mqtt").Logger()
		a.mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			QoS:       1,
			Log:       mqttLog,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		mqttSink = notify.NewMQTTSink(a.mqtt)
	}

	extractor := media.NewExtractor(cfg.FFmpegPath, media.ExecRunner{},
		log.With().Str("component", "ffmpeg").Logger())
	a.ffmpegAvailable = extractor.Available()
	if !a.ffmpegAvailable {
		log.Warn().Str("path", cfg.FFmpegPath).Msg("ffmpeg not found; every job will fail at audio extraction")
	}

	stager := media.NewStager(media.NewDriveSource(clients.Drive, cfg.DownloadChunkSize),
		log.With().Str("component", "stager").Logger())

	driver := transcribe.NewDriver(transcribe.DriverOptions{
		Recognizer: transcribe.NewGoogleRecognizer(clients.Speech),
		Store:      store,
		Poller: poll.Poller{
			Interval: cfg.PollInterval,
			MaxWait:  cfg.PollMaxWait,
		},
		Log: log.With().Str("component", "transcribe").Logger(),
	})

	a.scratch = storage.NewScratchRoot(cfg.ScratchDir)
	pipeline := jobs.NewPipeline(jobs.PipelineOptions{
		Scratch:     a.scratch,
		Stager:      stager,
		Extractor:   extractor,
		Transcriber: driver,
		Recognition: transcribe.DefaultRecognitionConfig(cfg.SpeechLanguage),
	})

	notifier := notify.NewNotifier(notify.Options{
		Webhook: notify.NewWebhookSink(cfg.NotifyTimeout),
		MQTT:    mqttSink,
		Stdout:  notify.NewWriterSink(stdout),
		Log:     log.With().Str("component", "notify").Logger(),
	})

	a.runner = jobs.NewRunner(jobs.RunnerOptions{
		Processor:          pipeline,
		Notifier:           notifier,
		DefaultDestination: cfg.NotifyWebhookURL,
		NotifyWorkers:      cfg.NotifyWorkers,
		OutcomeBuffer:      64,
		MaxConcurrent:      cfg.MaxConcurrentJobs,
		Log:                log.With().Str("component", "jobs").Logger(),
	})
	return a, nil
}

func (a *app) close() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.clients != nil {
		a.clients.Close()
	}
}
