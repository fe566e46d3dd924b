package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Extractor converts staged video into mono 16kHz PCM WAV with ffmpeg.
type Extractor struct {
	ffmpegPath string
	runner     CommandRunner
	log        zerolog.Logger
}

// NewExtractor creates an extractor. A nil runner uses ExecRunner.
func NewExtractor(ffmpegPath string, runner CommandRunner, log zerolog.Logger) *Extractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		log:        log,
	}
}

// Available reports whether the ffmpeg binary can be found. Call once at startup.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.ffmpegPath)
	return err == nil
}

// Extract runs ffmpeg against videoPath and returns the audio artifact.
// The output lands next to the input, see AudioPathFor.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (Artifact, error) {
	audioPath := AudioPathFor(videoPath)
	args := ffmpegArgs(videoPath, audioPath)

	cmdLog, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		e.log.Debug().
			Int("exit_code", cmdLog.ExitCode).
			Str("stderr", tail(cmdLog.Stderr, 2048)).
			Msg("ffmpeg failed")
		return Artifact{}, &CommandError{Log: cmdLog, Err: err}
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("ffmpeg completed but output is missing: %w", err)
	}

	e.log.Debug().Str("path", audioPath).Int64("bytes", info.Size()).Msg("audio extracted")
	return Artifact{Path: audioPath, Size: info.Size(), Kind: KindAudio}, nil
}

// AudioPathFor derives the audio output path by swapping the extension for .wav.
func AudioPathFor(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"
}

// ffmpegArgs builds the fixed conversion profile: mono, 16kHz, overwrite.
func ffmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		outputPath,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
