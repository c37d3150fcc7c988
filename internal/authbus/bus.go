// Package authbus broadcasts "the session changed" to interested views.
// The signal carries no payload: subscribers call the session resolver to
// learn the new state, which avoids staleness bugs from cached payloads.
package authbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shweta76555/deskcli/internal/tokenstore"
)

// Bus delivers in-process signals. Notify runs handlers synchronously in
// the caller's goroutine, so "token written, then notified" holds before
// the writer proceeds. Delivery is at-least-once per state change;
// duplicate signals are harmless because subscribers re-resolve
// idempotently.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: map[int]func(){}}
}

// Subscribe registers fn and returns its unsubscribe func. Unsubscribing
// twice is a no-op.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Notify invokes every subscriber. Handlers run outside the bus lock so a
// handler may subscribe or unsubscribe.
func (b *Bus) Notify() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Watcher is the cross-process channel: it polls the token store's
// modification time and raises the bus signal when another process wrote
// or cleared the slot. Writing the shared store is itself the observable
// event; the watcher merely surfaces it in-process.
type Watcher struct {
	store    tokenstore.Store
	bus      *Bus
	interval time.Duration
	log      *zap.Logger
}

// NewWatcher wires a store to a bus. A zero interval defaults to one second.
func NewWatcher(store tokenstore.Store, bus *Bus, interval time.Duration, log *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{store: store, bus: bus, interval: interval, log: log}
}

// Run polls until ctx is cancelled. Stat errors are logged and the poll
// continues; a transiently unreadable store must not kill the watcher.
func (w *Watcher) Run(ctx context.Context) {
	last, err := w.store.ModTime()
	if err != nil {
		w.log.Warn("token store stat failed", zap.Error(err))
	}
	w.log.Debug("store watcher started", zap.Duration("interval", w.interval))

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("store watcher stopped")
			return
		case <-t.C:
			mt, err := w.store.ModTime()
			if err != nil {
				w.log.Warn("token store stat failed", zap.Error(err))
				continue
			}
			if !mt.Equal(last) {
				last = mt
				w.bus.Notify()
			}
		}
	}
}
