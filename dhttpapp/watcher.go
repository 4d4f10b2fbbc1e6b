package dhttpapp

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// defaultDebounceDelay coalesces rapid editor write bursts into one reload.
const defaultDebounceDelay = 100 * time.Millisecond

// RouteWatcher watches a routes file and reloads the dispatcher when it
// changes. A failed reload keeps the previously loaded routes serving.
type RouteWatcher struct {
	path          string
	reload        func(ctx context.Context) error
	logger        *zap.Logger
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// RouteWatcherOption configures a RouteWatcher.
type RouteWatcherOption func(*RouteWatcher)

// WithDebounceDelay sets how long file events are coalesced before reloading.
func WithDebounceDelay(d time.Duration) RouteWatcherOption {
	return func(w *RouteWatcher) { w.debounceDelay = d }
}

// NewRouteWatcher creates a watcher for the given routes file. The reload
// callback is invoked once on Start and again after every file change.
func NewRouteWatcher(
	path string,
	reload func(ctx context.Context) error,
	logger *zap.Logger,
	opts ...RouteWatcherOption,
) (*RouteWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve routes file path %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}

	w := &RouteWatcher{
		path:          absPath,
		reload:        reload,
		logger:        logger.Named("routewatcher"),
		watcher:       fsw,
		debounceDelay: defaultDebounceDelay,
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start loads the routes once and begins watching for changes. The context
// bounds only the initial load.
func (w *RouteWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("route watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	if err := w.reload(ctx); err != nil {
		w.abort()
		return err
	}

	// Watch the directory rather than the file itself: editors and config
	// mounts replace the file, which silently drops a watch on the old inode.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.abort()
		return errors.Wrapf(err, "watch directory of %s", w.path)
	}

	go w.watch()

	w.logger.Info("watching routes file", zap.String("path", w.path))

	return nil
}

// abort rolls back a failed Start so Stop does not wait for a watch loop
// that never started.
func (w *RouteWatcher) abort() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	_ = w.watcher.Close()
}

// Stop stops watching and waits for the watch loop to exit.
func (w *RouteWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// watch is the main watch loop.
func (w *RouteWatcher) watch() {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			w.logger.Info("routes watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			debounceTimer, debounceCh = w.handleFileEvent(event, debounceTimer, debounceCh)

		case <-debounceCh:
			debounceCh = nil
			w.doReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("routes watcher error", zap.Error(err))
		}
	}
}

// handleFileEvent processes a file system event and returns the updated
// debounce timer.
func (w *RouteWatcher) handleFileEvent(
	event fsnotify.Event,
	debounceTimer *time.Timer,
	debounceCh <-chan time.Time,
) (*time.Timer, <-chan time.Time) {
	// Only process write and create events for our routes file.
	if filepath.Clean(event.Name) != w.path {
		return debounceTimer, debounceCh
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return debounceTimer, debounceCh
	}

	w.logger.Debug("routes file changed",
		zap.String("path", event.Name),
		zap.String("op", event.Op.String()),
	)

	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceTimer = time.NewTimer(w.debounceDelay)

	return debounceTimer, debounceTimer.C
}

// doReload attempts to reload the routes after a file change.
func (w *RouteWatcher) doReload() {
	w.logger.Info("reloading routes", zap.String("path", w.path))

	if err := w.reload(context.Background()); err != nil {
		w.logger.Error("failed to reload routes, keeping current ones", zap.Error(err))
		return
	}

	w.logger.Info("routes reloaded")
}
