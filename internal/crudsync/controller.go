// Package crudsync drives a per-resource list cache over the transport
// client: list, create, update, delete, with a re-fetch after every
// successful mutation instead of speculative local edits. The same
// controller backs the own-items view and the admin panels.
package crudsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/shweta76555/deskcli/internal/errs"
)

// State is the list lifecycle: Idle -> Loading -> {Loaded, Failed}.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EditPhase is the pending-edit lifecycle: None -> Editing -> Submitting -> None.
type EditPhase int

const (
	EditNone EditPhase = iota
	Editing
	Submitting
)

// Ops are the transport calls for one resource. Read-only views leave the
// mutation funcs nil; calling the matching controller method then fails
// with errs.ErrValidation before any request.
type Ops[T, D any] struct {
	List   func(ctx context.Context) ([]T, error)
	Create func(ctx context.Context, draft D) error
	Update func(ctx context.Context, id int64, draft D) error
	Delete func(ctx context.Context, id int64) error
}

// Controller is the optimistic-update state machine for one resource
// list. Items are cached in server order; every successful mutation
// re-invokes List rather than patching the cache locally, so the client
// never diverges from server-assigned identifiers.
type Controller[T, D any] struct {
	ops      Ops[T, D]
	validate func(D) error

	mu      sync.Mutex
	state   State
	items   []T
	failMsg string
	gen     uint64 // bumped per issued List; stale responses are discarded

	editPhase EditPhase
	editID    int64
	draft     D
}

// New builds a controller. validate runs before create/update requests;
// nil means no local validation.
func New[T, D any](ops Ops[T, D], validate func(D) error) *Controller[T, D] {
	return &Controller[T, D]{ops: ops, validate: validate}
}

// Snapshot returns the cached items, list state, and failure message.
// The slice is a copy; callers may not mutate controller state through it.
func (c *Controller[T, D]) Snapshot() ([]T, State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items, c.state, c.failMsg
}

// List fetches the full sequence and replaces the cache on success. Only
// the most recently issued List may apply its response; an older in-flight
// call returns without touching state once superseded. On failure the
// previous items are retained (the caller decides whether to retry; the
// controller never retries on its own).
func (c *Controller[T, D]) List(ctx context.Context) error {
	c.mu.Lock()
	c.state = Loading
	c.failMsg = ""
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	items, err := c.ops.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil // superseded by a newer List
	}
	if err != nil {
		c.state = Failed
		c.failMsg = err.Error()
		return err
	}
	c.items = items
	c.state = Loaded
	return nil
}

// Create validates the draft locally, submits it, and re-Lists on
// success. Validation failure sends no request.
func (c *Controller[T, D]) Create(ctx context.Context, draft D) error {
	if c.ops.Create == nil {
		return fmt.Errorf("%w: resource is read-only", errs.ErrValidation)
	}
	if c.validate != nil {
		if err := c.validate(draft); err != nil {
			return err
		}
	}
	if err := c.ops.Create(ctx, draft); err != nil {
		return err
	}
	return c.List(ctx)
}

// BeginEdit opens a pending draft for one item. Any previous draft is
// replaced; a draft exists only between here and submit/cancel.
func (c *Controller[T, D]) BeginEdit(id int64, draft D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editPhase = Editing
	c.editID = id
	c.draft = draft
}

// CancelEdit discards the pending draft.
func (c *Controller[T, D]) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearEditLocked()
}

func (c *Controller[T, D]) clearEditLocked() {
	var zero D
	c.editPhase = EditNone
	c.editID = 0
	c.draft = zero
}

// Edit returns the pending draft, if any.
func (c *Controller[T, D]) Edit() (id int64, draft D, phase EditPhase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editID, c.draft, c.editPhase
}

// SubmitEdit validates and submits the pending draft. The draft is
// cleared only after confirmed success; on failure it returns to Editing
// so the user can correct and resubmit.
func (c *Controller[T, D]) SubmitEdit(ctx context.Context) error {
	if c.ops.Update == nil {
		return fmt.Errorf("%w: resource is read-only", errs.ErrValidation)
	}
	c.mu.Lock()
	if c.editPhase != Editing {
		c.mu.Unlock()
		return fmt.Errorf("%w: no pending edit", errs.ErrValidation)
	}
	id, draft := c.editID, c.draft
	c.editPhase = Submitting
	c.mu.Unlock()

	if c.validate != nil {
		if err := c.validate(draft); err != nil {
			c.mu.Lock()
			c.editPhase = Editing
			c.mu.Unlock()
			return err
		}
	}
	if err := c.ops.Update(ctx, id, draft); err != nil {
		c.mu.Lock()
		c.editPhase = Editing
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.clearEditLocked()
	c.mu.Unlock()
	return c.List(ctx)
}

// Delete issues the request only when confirm reports an explicit yes; a
// destructive action never fires from an unconfirmed call. On success the
// list is re-fetched; on failure the cached items stay in place.
func (c *Controller[T, D]) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if c.ops.Delete == nil {
		return fmt.Errorf("%w: resource is read-only", errs.ErrValidation)
	}
	if confirm == nil || !confirm() {
		return nil
	}
	if err := c.ops.Delete(ctx, id); err != nil {
		return err
	}
	return c.List(ctx)
}
