package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	workspacePrefix = "job-"
	// Written into every workspace at creation. The pruner only removes
	// directories that carry it.
	workspaceMarker = ".drive-transcriber"
)

// ScratchRoot allocates per-job workspaces under a single directory and
// remembers which of them are still in use.
type ScratchRoot struct {
	dir string

	mu     sync.Mutex
	active map[string]struct{}
}

// NewScratchRoot creates a scratch root. The directory is created lazily.
func NewScratchRoot(dir string) *ScratchRoot {
	return &ScratchRoot{dir: dir, active: make(map[string]struct{})}
}

// Dir returns the scratch root path.
func (r *ScratchRoot) Dir() string { return r.dir }

// NewWorkspace creates a fresh, empty directory owned by one job.
func (r *ScratchRoot) NewWorkspace(jobID string) (*Workspace, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", r.dir, err)
	}
	dir, err := os.MkdirTemp(r.dir, workspacePrefix+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, workspaceMarker), nil, 0o644); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("mark workspace: %w", err)
	}
	r.mu.Lock()
	r.active[dir] = struct{}{}
	r.mu.Unlock()
	return &Workspace{dir: dir, root: r}, nil
}

func (r *ScratchRoot) isActive(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[dir]
	return ok
}

// owns reports whether dir was created by a ScratchRoot, in this process or
// an earlier one.
func owns(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, workspaceMarker))
	return err == nil && info.Mode().IsRegular()
}

func (r *ScratchRoot) release(dir string) {
	r.mu.Lock()
	delete(r.active, dir)
	r.mu.Unlock()
}

// Workspace is one job's scratch directory. Files created through it, or
// registered with Track, are removed by Cleanup. Not safe for concurrent use;
// a workspace belongs to a single pipeline run.
type Workspace struct {
	dir       string
	root      *ScratchRoot
	artifacts []string
	closed    bool
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// CreateTemp creates a tracked scratch file matching pattern.
func (w *Workspace) CreateTemp(pattern string) (*os.File, error) {
	if w.closed {
		return nil, errors.New("workspace already cleaned up")
	}
	f, err := os.CreateTemp(w.dir, pattern)
	if err != nil {
		return nil, err
	}
	w.artifacts = append(w.artifacts, f.Name())
	return f, nil
}

// Track registers a path produced by an external process (e.g. ffmpeg output).
// The file does not need to exist yet.
func (w *Workspace) Track(path string) {
	w.artifacts = append(w.artifacts, path)
}

// Artifacts returns the tracked paths in creation order.
func (w *Workspace) Artifacts() []string {
	return append([]string(nil), w.artifacts...)
}

// Cleanup removes every tracked artifact and then the directory itself.
// Subsequent calls are no-ops, so each artifact is deleted at most once.
func (w *Workspace) Cleanup() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	for _, path := range w.artifacts {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(w.dir); err != nil {
		errs = append(errs, err)
	}
	if w.root != nil {
		w.root.release(w.dir)
	}
	return errors.Join(errs...)
}
