package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// ScratchPruner removes job workspaces that outlived their job, typically
// left behind when the process was killed mid-pipeline. Workspaces still
// owned by a running job are never touched.
type ScratchPruner struct {
	root      *ScratchRoot
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewScratchPruner creates a pruner that deletes inactive workspaces older
// than retention. A zero retention disables pruning.
func NewScratchPruner(root *ScratchRoot, retention time.Duration, log zerolog.Logger) *ScratchPruner {
	return &ScratchPruner{
		root:      root,
		retention: retention,
		interval:  1 * time.Hour,
		now:       time.Now,
		log:       log.With().Str("component", "scratch-pruner").Logger(),
		stop:      make(chan struct{}),
	}
}

func (p *ScratchPruner) Start() {
	if p.retention <= 0 {
		return
	}
	go p.loop()
}

func (p *ScratchPruner) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *ScratchPruner) loop() {
	// Run once on startup to clear leftovers from a previous process
	p.prune()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.stop:
			return
		}
	}
}

// prune returns the number of workspaces removed.
func (p *ScratchPruner) prune() int {
	entries, err := os.ReadDir(p.root.Dir())
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn().Err(err).Msg("read scratch root failed")
		}
		return 0
	}

	cutoff := p.now().Add(-p.retention)
	var prunedCount int
	var prunedBytes int64

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workspacePrefix) {
			continue
		}
		path := filepath.Join(p.root.Dir(), e.Name())
		if p.root.isActive(path) || !owns(path) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		size := dirSize(path)
		if err := os.RemoveAll(path); err != nil {
			p.log.Warn().Err(err).Str("dir", path).Msg("remove stale workspace failed")
			continue
		}
		prunedCount++
		prunedBytes += size
	}

	if prunedCount > 0 {
		p.log.Info().
			Int("pruned", prunedCount).
			Str("freed", humanize.IBytes(uint64(prunedBytes))).
			Msg("scratch prune complete")
	}
	return prunedCount
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
