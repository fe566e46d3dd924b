package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScratchPrunerRemovesStaleWorkspaces(t *testing.T) {
	root := NewScratchRoot(t.TempDir())

	// Left behind by a previous process.
	stale := filepath.Join(root.Dir(), "job-old-123")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(stale, workspaceMarker), nil, 0o644)
	os.WriteFile(filepath.Join(stale, "video-1.mp4"), []byte("data"), 0o644)

	// Not a workspace.
	other := filepath.Join(root.Dir(), "keep-me")
	os.MkdirAll(other, 0o755)

	// Owned by a running job.
	live, err := root.NewWorkspace("live")
	if err != nil {
		t.Fatal(err)
	}

	p := NewScratchPruner(root, time.Hour, zerolog.Nop())
	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if n := p.prune(); n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale workspace still present")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-workspace directory removed")
	}
	if _, err := os.Stat(live.Dir()); err != nil {
		t.Error("active workspace removed")
	}

	// Once the job releases it, the workspace is gone and nothing is left to prune.
	live.Cleanup()
	if n := p.prune(); n != 0 {
		t.Errorf("second prune = %d, want 0", n)
	}
}

func TestScratchPrunerIgnoresUnmarkedDirs(t *testing.T) {
	root := NewScratchRoot(t.TempDir())

	// Same prefix, but created by some other program sharing the directory.
	foreign := filepath.Join(root.Dir(), "job-ci-runner-cache")
	if err := os.MkdirAll(foreign, 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(foreign, "cache.bin"), []byte("data"), 0o644)

	// A directory named like the marker does not count.
	fake := filepath.Join(root.Dir(), "job-fake-marker")
	os.MkdirAll(filepath.Join(fake, workspaceMarker), 0o755)

	p := NewScratchPruner(root, 6*time.Hour, zerolog.Nop())
	p.now = func() time.Time { return time.Now().Add(7 * time.Hour) }

	if n := p.prune(); n != 0 {
		t.Errorf("pruned = %d, want 0", n)
	}
	for _, dir := range []string{foreign, fake} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("%s removed: %v", dir, err)
		}
	}
}

func TestScratchPrunerRemovesReleasedWorkspaceFromPreviousRun(t *testing.T) {
	dir := t.TempDir()

	// A workspace from a process that died before Cleanup.
	ws, err := NewScratchRoot(dir).NewWorkspace("crashed")
	if err != nil {
		t.Fatal(err)
	}

	p := NewScratchPruner(NewScratchRoot(dir), time.Hour, zerolog.Nop())
	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if n := p.prune(); n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Error("orphaned workspace still present")
	}
}

func TestScratchPrunerKeepsRecentWorkspaces(t *testing.T) {
	root := NewScratchRoot(t.TempDir())
	recent := filepath.Join(root.Dir(), "job-recent-1")
	os.MkdirAll(recent, 0o755)

	p := NewScratchPruner(root, time.Hour, zerolog.Nop())
	if n := p.prune(); n != 0 {
		t.Errorf("pruned = %d, want 0", n)
	}
}

func TestScratchPrunerMissingRoot(t *testing.T) {
	root := NewScratchRoot(filepath.Join(t.TempDir(), "does-not-exist"))
	p := NewScratchPruner(root, time.Hour, zerolog.Nop())
	if n := p.prune(); n != 0 {
		t.Errorf("pruned = %d, want 0", n)
	}
}
