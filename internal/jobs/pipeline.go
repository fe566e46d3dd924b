package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/media"
	"github.com/snarg/drive-transcriber/internal/metrics"
	"github.com/snarg/drive-transcriber/internal/poll"
	"github.com/snarg/drive-transcriber/internal/storage"
	"github.com/snarg/drive-transcriber/internal/transcribe"
)

// Request is one transcription job as submitted by a caller.
type Request struct {
	DriveLink   string `json:"drive_link,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type ScratchAllocator interface {
	NewWorkspace(jobID string) (*storage.Workspace, error)
}

type Stager interface {
	Stage(ctx context.Context, fileID string, scratch media.Scratch) (media.Artifact, error)
}

type Extractor interface {
	Extract(ctx context.Context, videoPath string) (media.Artifact, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio media.Artifact, strategy transcribe.Strategy, cfg transcribe.RecognitionConfig) (string, error)
}

// PipelineOptions wires the stages of a Pipeline.
type PipelineOptions struct {
	Scratch     ScratchAllocator
	Stager      Stager
	Extractor   Extractor
	Transcriber Transcriber
	Recognition transcribe.RecognitionConfig
}

// Pipeline runs the stages of one job in order:
// resolve, stage, extract, select strategy, transcribe.
type Pipeline struct {
	scratch     ScratchAllocator
	stager      Stager
	extractor   Extractor
	transcriber Transcriber
	recognition transcribe.RecognitionConfig
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	return &Pipeline{
		scratch:     opts.Scratch,
		stager:      opts.Stager,
		extractor:   opts.Extractor,
		transcriber: opts.Transcriber,
		recognition: opts.Recognition,
	}
}

// Process runs the job and returns the transcript. Every failure is a
// *Error. Scratch files are removed before Process returns, on every path.
func (p *Pipeline) Process(ctx context.Context, log zerolog.Logger, jobID string, req Request) (string, error) {
	fileID, err := media.ResolveFileID(req.DriveLink, req.FileID)
	if err != nil {
		return "", &Error{Kind: KindInvalidRequest, Err: err}
	}
	log = log.With().Str("file_id", fileID).Logger()

	ws, err := p.scratch.NewWorkspace(jobID)
	if err != nil {
		return "", &Error{Kind: KindStage, Err: fmt.Errorf("allocate scratch: %w", err)}
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			log.Warn().Err(err).Str("dir", ws.Dir()).Msg("scratch cleanup incomplete")
		}
	}()

	start := time.Now()
	video, err := p.stager.Stage(ctx, fileID, ws)
	metrics.ObserveStage("stage", start)
	if err != nil {
		return "", &Error{Kind: KindStage, Err: err}
	}
	log.Info().Int64("bytes", video.Size).Dur("elapsed", time.Since(start)).Msg("video staged")

	// ffmpeg may leave a partial file behind on failure.
	ws.Track(media.AudioPathFor(video.Path))

	start = time.Now()
	audio, err := p.extractor.Extract(ctx, video.Path)
	metrics.ObserveStage("extract", start)
	if err != nil {
		return "", &Error{Kind: KindTranscode, Err: fmt.Errorf("extract audio: %w", err)}
	}

	strategy := transcribe.SelectStrategy(audio.Size)
	log.Info().
		Int64("bytes", audio.Size).
		Stringer("strategy", strategy).
		Msg("audio extracted")

	start = time.Now()
	text, err := p.transcriber.Transcribe(ctx, audio, strategy, p.recognition)
	metrics.ObserveStage("transcribe", start)
	if err != nil {
		kind := KindTranscribe
		if errors.Is(err, poll.ErrTimeout) {
			kind = KindTranscribeTimeout
		}
		return "", &Error{Kind: kind, Err: fmt.Errorf("transcribe: %w", err)}
	}
	return text, nil
}
