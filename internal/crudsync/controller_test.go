package crudsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shweta76555/deskcli/internal/errs"
	"github.com/shweta76555/deskcli/internal/model"
)

func validateDraft(d model.ItemDraft) error { return d.Validate() }

type fakeOps struct {
	listCalls   atomic.Int64
	createCalls atomic.Int64
	updateCalls atomic.Int64
	deleteCalls atomic.Int64

	listFn   func(call int64) ([]model.ProjectItem, error)
	createFn func() error
	updateFn func() error
	deleteFn func() error
}

func (f *fakeOps) ops() Ops[model.ProjectItem, model.ItemDraft] {
	return Ops[model.ProjectItem, model.ItemDraft]{
		List: func(context.Context) ([]model.ProjectItem, error) {
			n := f.listCalls.Add(1)
			if f.listFn != nil {
				return f.listFn(n)
			}
			return nil, nil
		},
		Create: func(context.Context, model.ItemDraft) error {
			f.createCalls.Add(1)
			if f.createFn != nil {
				return f.createFn()
			}
			return nil
		},
		Update: func(context.Context, int64, model.ItemDraft) error {
			f.updateCalls.Add(1)
			if f.updateFn != nil {
				return f.updateFn()
			}
			return nil
		},
		Delete: func(context.Context, int64) error {
			f.deleteCalls.Add(1)
			if f.deleteFn != nil {
				return f.deleteFn()
			}
			return nil
		},
	}
}

func items(titles ...string) []model.ProjectItem {
	out := make([]model.ProjectItem, 0, len(titles))
	for i, title := range titles {
		out = append(out, model.ProjectItem{ID: int64(i + 1), Title: title})
	}
	return out
}

func TestList_Transitions(t *testing.T) {
	t.Parallel()

	f := &fakeOps{listFn: func(int64) ([]model.ProjectItem, error) {
		return items("b", "a", "c"), nil
	}}
	c := New(f.ops(), validateDraft)

	_, state, _ := c.Snapshot()
	require.Equal(t, Idle, state)

	require.NoError(t, c.List(context.Background()))

	got, state, msg := c.Snapshot()
	assert.Equal(t, Loaded, state)
	assert.Empty(t, msg)
	// Server order is preserved, never client-sorted.
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, "a", got[1].Title)
}

func TestList_FailureRetainsPreviousItems(t *testing.T) {
	t.Parallel()

	f := &fakeOps{listFn: func(call int64) ([]model.ProjectItem, error) {
		if call == 1 {
			return items("kept"), nil
		}
		return nil, errors.New("boom")
	}}
	c := New(f.ops(), validateDraft)

	require.NoError(t, c.List(context.Background()))
	err := c.List(context.Background())
	require.Error(t, err)

	got, state, msg := c.Snapshot()
	assert.Equal(t, Failed, state)
	assert.Equal(t, "boom", msg)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)
}

func TestList_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	firstIssued := make(chan struct{})
	release := make(chan struct{})
	f := &fakeOps{listFn: func(call int64) ([]model.ProjectItem, error) {
		if call == 1 {
			close(firstIssued)
			<-release // the older request resolves after the newer one
			return items("old"), nil
		}
		return items("new"), nil
	}}
	c := New(f.ops(), validateDraft)

	done := make(chan error, 1)
	go func() { done <- c.List(context.Background()) }()
	<-firstIssued

	require.NoError(t, c.List(context.Background()))
	got, state, _ := c.Snapshot()
	require.Equal(t, Loaded, state)
	require.Equal(t, "new", got[0].Title)

	close(release)
	require.NoError(t, <-done) // superseded call reports nothing to do

	got, state, _ = c.Snapshot()
	assert.Equal(t, Loaded, state)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Title, "late response from the older request must be discarded")
}

func TestCreate_ValidatesBeforeRequest(t *testing.T) {
	t.Parallel()

	f := &fakeOps{}
	c := New(f.ops(), validateDraft)

	err := c.Create(context.Background(), model.ItemDraft{Title: "   "})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.EqualValues(t, 0, f.createCalls.Load(), "no request on validation failure")
	assert.EqualValues(t, 0, f.listCalls.Load())
}

func TestCreate_RefetchesInsteadOfSpeculativeInsert(t *testing.T) {
	t.Parallel()

	f := &fakeOps{listFn: func(int64) ([]model.ProjectItem, error) {
		return items("from-server"), nil
	}}
	c := New(f.ops(), validateDraft)

	require.NoError(t, c.Create(context.Background(), model.ItemDraft{Title: "x"}))
	assert.EqualValues(t, 1, f.createCalls.Load())
	assert.EqualValues(t, 1, f.listCalls.Load(), "success must re-invoke list")

	got, state, _ := c.Snapshot()
	assert.Equal(t, Loaded, state)
	require.Len(t, got, 1)
	assert.Equal(t, "from-server", got[0].Title)
}

func TestCreate_FailureSurfacesServerMessage(t *testing.T) {
	t.Parallel()

	f := &fakeOps{createFn: func() error { return errors.New("Title is required") }}
	c := New(f.ops(), validateDraft)

	err := c.Create(context.Background(), model.ItemDraft{Title: "x"})
	require.EqualError(t, err, "Title is required")
	assert.EqualValues(t, 0, f.listCalls.Load(), "no refetch on failure")
}

func TestEdit_Lifecycle(t *testing.T) {
	t.Parallel()

	f := &fakeOps{}
	c := New(f.ops(), validateDraft)

	_, _, phase := c.Edit()
	require.Equal(t, EditNone, phase)

	c.BeginEdit(3, model.ItemDraft{Title: "draft"})
	id, draft, phase := c.Edit()
	assert.EqualValues(t, 3, id)
	assert.Equal(t, "draft", draft.Title)
	assert.Equal(t, Editing, phase)

	c.CancelEdit()
	_, _, phase = c.Edit()
	assert.Equal(t, EditNone, phase)
	assert.EqualValues(t, 0, f.updateCalls.Load())
}

func TestSubmitEdit_ClearsDraftOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	fail := errors.New("server rejected")
	f := &fakeOps{updateFn: func() error { return fail }}
	c := New(f.ops(), validateDraft)

	c.BeginEdit(3, model.ItemDraft{Title: "draft"})
	err := c.SubmitEdit(context.Background())
	require.ErrorIs(t, err, fail)

	// The draft survives a failed submit so the user can correct it.
	_, draft, phase := c.Edit()
	assert.Equal(t, Editing, phase)
	assert.Equal(t, "draft", draft.Title)

	f.updateFn = nil
	require.NoError(t, c.SubmitEdit(context.Background()))
	_, _, phase = c.Edit()
	assert.Equal(t, EditNone, phase)
	assert.EqualValues(t, 1, f.listCalls.Load())
}

func TestSubmitEdit_ValidationKeepsEditing(t *testing.T) {
	t.Parallel()

	f := &fakeOps{}
	c := New(f.ops(), validateDraft)

	c.BeginEdit(3, model.ItemDraft{Title: ""})
	err := c.SubmitEdit(context.Background())
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.EqualValues(t, 0, f.updateCalls.Load())

	_, _, phase := c.Edit()
	assert.Equal(t, Editing, phase)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	t.Parallel()

	f := &fakeOps{}
	c := New(f.ops(), validateDraft)

	require.NoError(t, c.Delete(context.Background(), 1, nil))
	require.NoError(t, c.Delete(context.Background(), 1, func() bool { return false }))
	assert.EqualValues(t, 0, f.deleteCalls.Load(), "unconfirmed delete must not issue a request")

	_, state, _ := c.Snapshot()
	assert.Equal(t, Idle, state, "list state untouched")

	require.NoError(t, c.Delete(context.Background(), 1, func() bool { return true }))
	assert.EqualValues(t, 1, f.deleteCalls.Load())
	assert.EqualValues(t, 1, f.listCalls.Load())
}

func TestDelete_FailureLeavesItemsInPlace(t *testing.T) {
	t.Parallel()

	f := &fakeOps{listFn: func(int64) ([]model.ProjectItem, error) {
		return items("still-here"), nil
	}}
	c := New(f.ops(), validateDraft)
	require.NoError(t, c.List(context.Background()))

	f.deleteFn = func() error { return errors.New("Delete failed") }
	err := c.Delete(context.Background(), 1, func() bool { return true })
	require.EqualError(t, err, "Delete failed")

	got, state, _ := c.Snapshot()
	assert.Equal(t, Loaded, state)
	require.Len(t, got, 1)
	assert.Equal(t, "still-here", got[0].Title)
}

func TestReadOnlyController(t *testing.T) {
	t.Parallel()

	c := New(Ops[model.User, struct{}]{
		List: func(context.Context) ([]model.User, error) {
			return []model.User{{ID: 1, Name: "admin"}}, nil
		},
	}, nil)

	require.NoError(t, c.List(context.Background()))
	require.ErrorIs(t, c.Create(context.Background(), struct{}{}), errs.ErrValidation)
	require.ErrorIs(t, c.Delete(context.Background(), 1, func() bool { return true }), errs.ErrValidation)
}

func TestList_ConcurrentCallsDoNotRace(t *testing.T) {
	t.Parallel()

	f := &fakeOps{listFn: func(int64) ([]model.ProjectItem, error) {
		time.Sleep(time.Millisecond)
		return items("x"), nil
	}}
	c := New(f.ops(), validateDraft)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_ = c.List(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	_, state, _ := c.Snapshot()
	assert.Equal(t, Loaded, state)
}
