// internal/guard/watcher.go
package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/session"
)

// SessionControl is the slice of the session store the watcher drives.
type SessionControl interface {
	Current() session.Session
	IsExpired(now time.Time) bool
	SignOut(ctx context.Context)
}

// Watcher periodically checks the session for idle expiry and forces a
// sign-out when the inactivity window has passed. Callers subscribe to
// Expired to learn when that happened, typically to navigate to login.
type Watcher struct {
	sessions SessionControl
	logger   *logging.Logger
	interval time.Duration
	clock    func() time.Time

	expired chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherClock injects the time source. Used by tests.
func WithWatcherClock(clock func() time.Time) WatcherOption {
	return func(w *Watcher) { w.clock = clock }
}

// NewWatcher creates a watcher checking the session every interval.
func NewWatcher(sessions SessionControl, interval time.Duration, logger *logging.Logger, opts ...WatcherOption) (*Watcher, error) {
	if sessions == nil {
		return nil, errors.New("session control is required")
	}
	if interval <= 0 {
		return nil, errors.New("check interval must be positive")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	w := &Watcher{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		clock:    time.Now,
		expired:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Expired signals once per forced sign-out. The channel is buffered so a
// slow consumer never blocks the watcher; coalesced signals are fine
// because the reaction is the same either way.
func (w *Watcher) Expired() <-chan struct{} {
	return w.expired
}

// Start begins the periodic check. It is a no-op when already running.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
}

// Stop halts the periodic check and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one expiry evaluation. Exposed so a resumed or foregrounded
// client can force an immediate check instead of waiting for the ticker.
func (w *Watcher) Check(ctx context.Context) {
	if !w.sessions.Current().Authenticated() {
		return
	}
	if !w.sessions.IsExpired(w.clock()) {
		return
	}

	w.logger.Info(ctx, "session idle timeout reached, signing out")
	w.sessions.SignOut(ctx)

	select {
	case w.expired <- struct{}{}:
	default:
	}
}
