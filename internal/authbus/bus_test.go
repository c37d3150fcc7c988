package authbus

import (
	"context"
	"testing"
	"time"

	"github.com/shweta76555/deskcli/internal/tokenstore"
)

func TestBus_NotifyAndUnsubscribe(t *testing.T) {
	t.Parallel()

	b := New()
	var a, c int
	unsubA := b.Subscribe(func() { a++ })
	unsubC := b.Subscribe(func() { c++ })

	b.Notify()
	if a != 1 || c != 1 {
		t.Fatalf("both subscribers must fire: a=%d c=%d", a, c)
	}

	unsubA()
	b.Notify()
	if a != 1 || c != 2 {
		t.Fatalf("unsubscribed handler must not fire: a=%d c=%d", a, c)
	}

	// Double-unsubscribe is a no-op.
	unsubA()
	unsubC()
	b.Notify()
	if a != 1 || c != 2 {
		t.Fatalf("after unsubscribe all: a=%d c=%d", a, c)
	}
}

func TestBus_NotifyIsSynchronous(t *testing.T) {
	t.Parallel()

	b := New()
	fired := false
	defer b.Subscribe(func() { fired = true })()

	b.Notify()
	if !fired {
		t.Fatalf("Notify must run handlers before returning")
	}
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	t.Parallel()

	b := New()
	var late int
	var unsub func()
	unsubOuter := b.Subscribe(func() {
		if unsub == nil {
			unsub = b.Subscribe(func() { late++ })
		}
	})
	defer unsubOuter()

	b.Notify() // registers the late subscriber without deadlocking
	b.Notify()
	if late != 1 {
		t.Fatalf("late subscriber must fire on the second notify: %d", late)
	}
	unsub()
}

func TestWatcher_SignalsOnStoreMutation(t *testing.T) {
	t.Parallel()

	store := tokenstore.NewMemStore()
	b := New()
	signals := make(chan struct{}, 8)
	defer b.Subscribe(func() { signals <- struct{}{} })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		NewWatcher(store, b, 5*time.Millisecond, nil).Run(ctx)
		close(done)
	}()

	if err := store.Set("tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not signal after Set")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not signal after Clear")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop on cancel")
	}
}
