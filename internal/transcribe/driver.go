package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/media"
	"github.com/snarg/drive-transcriber/internal/metrics"
	"github.com/snarg/drive-transcriber/internal/poll"
	"github.com/snarg/drive-transcriber/internal/storage"
)

// ErrNoStagingStore is returned when audio needs the async path but no
// staging bucket is configured.
var ErrNoStagingStore = errors.New("async transcription requires a staging bucket")

// deleteTimeout bounds the best-effort removal of a staged object.
const deleteTimeout = 30 * time.Second

// DriverOptions configures the transcription driver.
type DriverOptions struct {
	Recognizer Recognizer
	Store      storage.ObjectStore // nil disables the async strategy
	Poller     poll.Poller
	NewKey     func() string // nil = audio/<uuid>.wav
	Log        zerolog.Logger
}

// Driver runs the chosen strategy against the speech service.
type Driver struct {
	recognizer Recognizer
	store      storage.ObjectStore
	poller     poll.Poller
	newKey     func() string
	log        zerolog.Logger
}

// NewDriver creates a transcription driver.
func NewDriver(opts DriverOptions) *Driver {
	newKey := opts.NewKey
	if newKey == nil {
		newKey = func() string { return "audio/" + uuid.NewString() + ".wav" }
	}
	return &Driver{
		recognizer: opts.Recognizer,
		store:      opts.Store,
		poller:     opts.Poller,
		newKey:     newKey,
		log:        opts.Log,
	}
}

// Transcribe produces the transcript for audio using strategy.
func (d *Driver) Transcribe(ctx context.Context, audio media.Artifact, strategy Strategy, cfg RecognitionConfig) (string, error) {
	metrics.StrategySelectedTotal.WithLabelValues(strategy.String()).Inc()

	var (
		res []Result
		err error
	)
	switch strategy {
	case Sync:
		res, err = d.recognizeSync(ctx, audio, cfg)
	case Async:
		res, err = d.recognizeAsync(ctx, audio, cfg)
	default:
		err = fmt.Errorf("unknown strategy %d", strategy)
	}
	if err != nil {
		return "", err
	}
	return JoinTranscript(res), nil
}

func (d *Driver) recognizeSync(ctx context.Context, audio media.Artifact, cfg RecognitionConfig) ([]Result, error) {
	content, err := os.ReadFile(audio.Path)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	start := time.Now()
	res, err := d.recognizer.Recognize(ctx, content, cfg)
	if err != nil {
		return nil, err
	}
	d.log.Debug().
		Int("results", len(res)).
		Dur("latency", time.Since(start)).
		Msg("sync recognition complete")
	return res, nil
}

func (d *Driver) recognizeAsync(ctx context.Context, audio media.Artifact, cfg RecognitionConfig) ([]Result, error) {
	if d.store == nil {
		return nil, ErrNoStagingStore
	}

	// Uploading
	key := d.newKey()
	uri, err := d.store.Upload(ctx, key, audio.Path)
	if err != nil {
		return nil, fmt.Errorf("stage audio: %w", err)
	}
	log := d.log.With().Str("key", key).Logger()
	log.Debug().Str("store", d.store.Type()).Str("uri", uri).Int64("bytes", audio.Size).Msg("audio staged")
	defer d.deleteStaged(ctx, log, key)

	// Started
	op, err := d.recognizer.LongRunningRecognize(ctx, uri, cfg)
	if err != nil {
		return nil, fmt.Errorf("start long-running recognize: %w", err)
	}
	log = log.With().Str("operation", op.Name()).Logger()
	log.Info().Msg("long-running recognition started")

	// Polling, then Completed
	var res []Result
	err = d.poller.Until(ctx, func(ctx context.Context, attempt int, elapsed time.Duration) (bool, error) {
		done, r, err := op.Poll(ctx)
		if err != nil {
			return false, fmt.Errorf("poll operation: %w", err)
		}
		if done {
			res = r
			return true, nil
		}
		log.Info().
			Int("attempt", attempt).
			Dur("elapsed", elapsed).
			Msg("waiting for recognition")
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// deleteStaged removes the staged object. Failures are logged, never returned.
func (d *Driver) deleteStaged(ctx context.Context, log zerolog.Logger, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if err := d.store.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Msg("failed to delete staged audio")
		return
	}
	log.Debug().Msg("staged audio deleted")
}
