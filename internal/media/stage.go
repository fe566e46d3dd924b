package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Progress reports the state of a chunked download after one chunk.
type Progress struct {
	BytesWritten int64
	TotalBytes   int64 // 0 if unknown
	Done         bool
}

// Percent returns completion in the range 0-100, or 0 if the size is unknown.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		if p.Done {
			return 100
		}
		return 0
	}
	return float64(p.BytesWritten) * 100 / float64(p.TotalBytes)
}

// Download is an in-progress chunked download of one remote file.
type Download interface {
	// NextChunk copies the next chunk into w and reports cumulative progress.
	NextChunk(ctx context.Context, w io.Writer) (Progress, error)
}

// MediaSource opens chunked downloads from the remote file store.
type MediaSource interface {
	Open(ctx context.Context, fileID string) (Download, error)
}

// Scratch allocates job-owned scratch files. The caller removes them.
type Scratch interface {
	CreateTemp(pattern string) (*os.File, error)
}

var errStalled = errors.New("download made no progress")

// Stager downloads source media into scratch storage.
type Stager struct {
	source MediaSource
	log    zerolog.Logger
}

// NewStager creates a stager reading from source.
func NewStager(source MediaSource, log zerolog.Logger) *Stager {
	return &Stager{source: source, log: log}
}

// Stage streams fileID into a fresh .mp4 scratch file. On failure the
// partially written file is left for the workspace teardown.
func (s *Stager) Stage(ctx context.Context, fileID string, scratch Scratch) (Artifact, error) {
	f, err := scratch.CreateTemp("video-*.mp4")
	if err != nil {
		return Artifact{}, fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()

	written, err := s.copyChunks(ctx, fileID, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close scratch file: %w", cerr)
	}
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{Path: path, Size: written, Kind: KindVideo}, nil
}

func (s *Stager) copyChunks(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	dl, err := s.source.Open(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("open download %s: %w", fileID, err)
	}

	var last int64
	for {
		p, err := dl.NextChunk(ctx, w)
		if err != nil {
			return p.BytesWritten, fmt.Errorf("download %s: %w", fileID, err)
		}

		s.log.Debug().
			Str("file_id", fileID).
			Str("downloaded", humanize.IBytes(uint64(p.BytesWritten))).
			Str("progress", fmt.Sprintf("%.0f%%", p.Percent())).
			Msg("download chunk complete")

		if p.Done {
			return p.BytesWritten, nil
		}
		if p.BytesWritten <= last {
			return p.BytesWritten, fmt.Errorf("download %s: %w", fileID, errStalled)
		}
		last = p.BytesWritten
	}
}
