// Package watch re-applies an avatar whenever the bundle is replaced, for
// example after the host package is reinstalled or auto-updated.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianholle/custom-claude-avatar/internal/apply"
	"github.com/brianholle/custom-claude-avatar/internal/bundle"
	"github.com/brianholle/custom-claude-avatar/internal/logging"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultCacheSize = 64
	minTick          = 10 * time.Millisecond
)

// Processor runs the patch pipeline on an in-memory document.
type Processor interface {
	Process(ctx context.Context, key, doc string, dryRun bool) (*apply.Report, error)
}

// Store persists the bundle.
type Store interface {
	Read(path string) (string, error)
	Write(path, content string) (*bundle.Result, error)
	Backup(path string) (*bundle.Result, error)
}

// Options configures a Watcher.
type Options struct {
	Path      string
	Key       string
	Debounce  time.Duration
	Backup    bool
	CacheSize int

	// OnApplied is called from the watch goroutine after each successful write.
	OnApplied func(*apply.Report)
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Applied       int
	Skipped       int
	Errors        int
	LastEventTime time.Time
	LastEventType string
	LastApplied   time.Time
}

// Watcher watches the bundle's directory and patches every fresh copy of
// the bundle that appears there.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	proc        Processor
	store       Store
	opts        Options
	path        string
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	handled     *lru.Cache[string, struct{}]
	last        *apply.Report
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
	logger      *zap.Logger
}

// New creates a Watcher. Nothing is watched until Start.
func New(proc Processor, store Store, opts Options, logger *zap.Logger) (*Watcher, error) {
	if opts.Path == "" {
		return nil, errors.New("watch: bundle path is required")
	}
	if opts.Key == "" {
		return nil, errors.New("watch: avatar key is required")
	}
	path, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	// Events arrive for the linked file's directory, not the link's.
	path = bundle.Target(path)
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	handled, err := lru.New[string, struct{}](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fw,
		proc:        proc,
		store:       store,
		opts:        opts,
		path:        path,
		dir:         filepath.Dir(path),
		debounceMap: make(map[string]time.Time),
		debounceDur: opts.Debounce,
		handled:     handled,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      logging.For(logger, logging.CategoryWatch),
	}, nil
}

// Start checks the bundle once, then watches for replacements. It is
// non-blocking; the watch loop runs in its own goroutine until Stop is
// called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// The directory is watched rather than the file, since a reinstall
	// replaces the file and drops any watch on it.
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching bundle", zap.String("path", w.path), zap.String("avatar", w.opts.Key))

	w.Trigger(ctx)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing watcher", zap.Error(err))
	}
	w.logger.Info("stopped")
}

// Stats returns a snapshot of the watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 5
	if tick < minTick {
		tick = minTick
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}
	w.logger.Debug("bundle event", zap.String("type", eventType))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventType = eventType
	w.debounceMap[w.path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebouncedEvents(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	settled := false
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			delete(w.debounceMap, path)
			settled = true
		}
	}
	w.mu.Unlock()

	if settled {
		w.Trigger(ctx)
	}
}

// Trigger checks the bundle now and patches it if it is a fresh copy.
func (w *Watcher) Trigger(ctx context.Context) {
	defer logging.StartTimer(w.logger, "trigger").Stop()

	doc, err := w.store.Read(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("bundle missing, waiting")
			return
		}
		w.fail(err)
		return
	}

	hash := bundle.Hash(doc)
	if w.handled.Contains(hash) {
		w.skip("already handled")
		return
	}

	w.mu.RLock()
	last := w.last
	w.mu.RUnlock()
	if last != nil && patch.AlreadyPatched(doc, last.Anchor, last.Compiled) {
		w.handled.Add(hash, struct{}{})
		w.skip("already patched")
		return
	}

	report, err := w.proc.Process(ctx, w.opts.Key, doc, false)
	if err != nil {
		w.handled.Add(hash, struct{}{})
		if errors.Is(err, symbols.ErrPatternNotFound) {
			w.logger.Info("bundle does not carry the default face, waiting for a fresh copy", zap.Error(err))
			w.skip("not pristine")
			return
		}
		w.fail(err)
		return
	}

	if w.opts.Backup {
		if _, err := w.store.Backup(w.path); err != nil {
			w.fail(err)
			return
		}
	}
	res, err := w.store.Write(w.path, report.Document)
	if err != nil {
		w.fail(err)
		return
	}
	w.handled.Add(res.NewHash, struct{}{})

	w.mu.Lock()
	w.last = report
	w.stats.Applied++
	w.stats.LastApplied = time.Now()
	w.mu.Unlock()

	w.logger.Info("avatar re-applied", zap.String("avatar", report.AvatarName), zap.Bool("banner", report.BannerPatched))
	if w.opts.OnApplied != nil {
		w.opts.OnApplied(report)
	}
}

func (w *Watcher) skip(reason string) {
	w.logger.Debug("skipping bundle", zap.String("reason", reason))
	w.mu.Lock()
	w.stats.Skipped++
	w.mu.Unlock()
}

func (w *Watcher) fail(err error) {
	w.logger.Warn("re-apply failed", zap.Error(err))
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
}
