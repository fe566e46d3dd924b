package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWorkspaceLifecycle(t *testing.T) {
	root := NewScratchRoot(filepath.Join(t.TempDir(), "scratch"))
	ws, err := root.NewWorkspace("job1")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir()), "job-job1-") {
		t.Errorf("workspace dir = %q", ws.Dir())
	}

	f, err := ws.CreateTemp("video-*.mp4")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()

	audio := strings.TrimSuffix(f.Name(), ".mp4") + ".wav"
	ws.Track(audio)
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := ws.Artifacts(); len(got) != 2 || got[0] != f.Name() || got[1] != audio {
		t.Errorf("Artifacts = %v", got)
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, p := range []string{f.Name(), audio, ws.Dir()} {
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s still exists after cleanup (err=%v)", p, err)
		}
	}

	entries, err := os.ReadDir(root.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch root not empty: %d entries", len(entries))
	}
}

func TestWorkspaceCleanupTwiceIsNoop(t *testing.T) {
	ws, err := NewScratchRoot(t.TempDir()).NewWorkspace("j")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("first Cleanup: %v", err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if _, err := ws.CreateTemp("x-*"); err == nil {
		t.Error("CreateTemp after Cleanup should fail")
	}
}

func TestWorkspaceTrackMissingFile(t *testing.T) {
	ws, err := NewScratchRoot(t.TempDir()).NewWorkspace("j")
	if err != nil {
		t.Fatal(err)
	}
	ws.Track(filepath.Join(ws.Dir(), "never-written.wav"))
	if err := ws.Cleanup(); err != nil {
		t.Errorf("Cleanup should ignore missing tracked files: %v", err)
	}
}

func TestWorkspacesAreIsolated(t *testing.T) {
	root := NewScratchRoot(t.TempDir())
	a, _ := root.NewWorkspace("same")
	b, _ := root.NewWorkspace("same")
	if a.Dir() == b.Dir() {
		t.Fatal("two workspaces share a directory")
	}
	a.Cleanup()
	if _, err := os.Stat(b.Dir()); err != nil {
		t.Errorf("cleaning one workspace removed another: %v", err)
	}
	b.Cleanup()
}

func TestGCSStoreURI(t *testing.T) {
	s := NewGCSStore(nil, "staging-bucket", zerolog.Nop())
	if got := s.URI("audio/abc.wav"); got != "gs://staging-bucket/audio/abc.wav" {
		t.Errorf("URI = %q", got)
	}
	if s.Type() != "gcs" {
		t.Errorf("Type = %q", s.Type())
	}
}
