// Package watcher polls the display mode and fires a callback when it flips.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"themedmark/model"
)

const DefaultInterval = time.Second

// ModeFunc reports the current mode. It must not block.
type ModeFunc func() model.Mode

// ChangeFunc handles a transition to m.
type ChangeFunc func(ctx context.Context, m model.Mode) error

// Ticker is the subset of *time.Ticker the watcher uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

type Option func(*Watcher)

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithTicker replaces the wall-clock ticker, mainly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(w *Watcher) { w.newTicker = newTicker }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

type Watcher struct {
	mu       sync.Mutex
	last     model.Mode
	interval time.Duration

	detect    ModeFunc
	onChange  ChangeFunc
	newTicker func(time.Duration) Ticker
	log       *log.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New records the current mode as the last known one.
func New(detect ModeFunc, onChange ChangeFunc, opts ...Option) *Watcher {
	w := &Watcher{
		interval: DefaultInterval,
		detect:   detect,
		onChange: onChange,
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{t: time.NewTicker(d)}
		},
		log: log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.last = detect()
	return w
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go func() {
		defer close(done)
		w.log.Info("started", "interval", w.interval, "mode", w.LastMode())
		ticker := w.newTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.log.Info("stopped")
				return
			case <-ticker.C():
				if _, err := w.Tick(ctx); err != nil {
					w.log.Error("mode change handling failed", "err", err)
				}
			}
		}
	}()
}

// Stop tears the loop down and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick samples the mode once. It reports whether the mode changed and returns the
// change handler's error, if any. The new mode is recorded even when the handler fails.
func (w *Watcher) Tick(ctx context.Context) (bool, error) {
	current := w.detect()

	w.mu.Lock()
	if current == w.last {
		w.mu.Unlock()
		return false, nil
	}
	w.last = current
	w.mu.Unlock()

	w.log.Debug("mode changed", "mode", current)
	return true, w.onChange(ctx, current)
}

func (w *Watcher) LastMode() model.Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
