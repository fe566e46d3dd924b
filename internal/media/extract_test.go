package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// fakeRunner simulates command execution.
type fakeRunner struct {
	calls int
	name  string
	args  []string
	run   func(name string, args ...string) (CommandLog, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandLog, error) {
	f.calls++
	f.name = name
	f.args = append([]string{}, args...)
	if f.run == nil {
		return CommandLog{Command: name, Args: args}, nil
	}
	return f.run(name, args...)
}

func TestAudioPathFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/tmp/job/video-123.mp4", "/tmp/job/video-123.wav"},
		{"/tmp/job/clip", "/tmp/job/clip.wav"},
		{"/tmp/a.b/clip.mov", "/tmp/a.b/clip.wav"},
	}
	for _, tt := range tests {
		if got := AudioPathFor(tt.in); got != tt.want {
			t.Errorf("AudioPathFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractSuccess(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "video-1.mp4")

	runner := &fakeRunner{
		run: func(name string, args ...string) (CommandLog, error) {
			out := args[len(args)-1]
			if err := os.WriteFile(out, make([]byte, 3200), 0o644); err != nil {
				t.Fatal(err)
			}
			return CommandLog{Command: name, Args: args}, nil
		},
	}

	e := NewExtractor("ffmpeg-custom", runner, zerolog.Nop())
	audio, err := e.Extract(context.Background(), video)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if runner.name != "ffmpeg-custom" {
		t.Errorf("command = %q, want ffmpeg-custom", runner.name)
	}
	if audio.Path != filepath.Join(dir, "video-1.wav") {
		t.Errorf("audio path = %q", audio.Path)
	}
	if audio.Size != 3200 {
		t.Errorf("audio size = %d, want 3200", audio.Size)
	}
	if audio.Kind != KindAudio {
		t.Errorf("kind = %q, want audio", audio.Kind)
	}

	for _, want := range [][2]string{{"-ac", "1"}, {"-ar", "16000"}, {"-i", video}} {
		if got := argValue(runner.args, want[0]); got != want[1] {
			t.Errorf("arg %s = %q, want %q", want[0], got, want[1])
		}
	}
	if !hasArg(runner.args, "-y") {
		t.Errorf("missing overwrite flag, args=%v", runner.args)
	}
}

func TestExtractNonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		run: func(name string, args ...string) (CommandLog, error) {
			return CommandLog{Command: name, ExitCode: 1, Stderr: "Invalid data found"}, errors.New("exit status 1")
		},
	}

	e := NewExtractor("ffmpeg", runner, zerolog.Nop())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "v.mp4"))
	if err == nil {
		t.Fatal("expected error")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.Log.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", cmdErr.Log.ExitCode)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1 (no retry)", runner.calls)
	}
}

func TestExtractMissingOutput(t *testing.T) {
	runner := &fakeRunner{}
	e := NewExtractor("ffmpeg", runner, zerolog.Nop())
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "v.mp4"))
	if err == nil {
		t.Fatal("expected error when ffmpeg leaves no output")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped ErrNotExist", err)
	}
}

func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func hasArg(args []string, key string) bool {
	for _, a := range args {
		if a == key {
			return true
		}
	}
	return false
}
