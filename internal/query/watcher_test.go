package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records every snapshot a watcher delivers.
type collector struct {
	mu    sync.Mutex
	snaps []Snapshot[string]
}

func (c *collector) record(s Snapshot[string]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, s)
}

func (c *collector) states() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	states := make([]State, 0, len(c.snaps))
	for _, s := range c.snaps {
		states = append(states, s.State)
	}
	return states
}

func waitForState(t *testing.T, w *Watcher[string], want State) Snapshot[string] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := w.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("watcher never reached state %v, last state %v", want, w.Snapshot().State)
	return Snapshot[string]{}
}

func TestWatcher_FetchSuccess(t *testing.T) {
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	defer w.Close()

	c := &collector{}
	w.Subscribe(c.record)

	w.SetParams(Params{Filter: "x"})
	snap := waitForState(t, w, StateSuccess)

	assert.Equal(t, []string{"a", "b"}, snap.Data)
	assert.Equal(t, []State{StateLoading, StateSuccess}, c.states())
}

func TestWatcher_SameParamsNoRefetch(t *testing.T) {
	var calls atomic.Int64
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		calls.Add(1)
		return nil, nil
	})
	defer w.Close()

	w.SetParams(Params{Filter: "x"})
	waitForState(t, w, StateSuccess)
	w.SetParams(Params{Filter: "x"})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestWatcher_ParamChangeCancelsPrior(t *testing.T) {
	firstCancelled := make(chan struct{})
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		if p.Filter == "slow" {
			<-ctx.Done()
			close(firstCancelled)
			return nil, ctx.Err()
		}
		return []string{"fast"}, nil
	})
	defer w.Close()

	w.SetParams(Params{Filter: "slow"})
	w.SetParams(Params{Filter: "fast"})

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request was never cancelled")
	}

	snap := waitForState(t, w, StateSuccess)
	assert.Equal(t, []string{"fast"}, snap.Data)
}

func TestWatcher_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		if p.Filter == "stale" {
			// Ignore cancellation and answer late anyway.
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})
	defer w.Close()

	w.SetParams(Params{Filter: "stale"})
	w.SetParams(Params{Filter: "fresh"})
	waitForState(t, w, StateSuccess)

	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"fresh"}, w.Snapshot().Data)
}

func TestWatcher_AbortSuppressed(t *testing.T) {
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		return nil, &api.Error{Message: "cancelled", IsAbort: true}
	})
	defer w.Close()

	c := &collector{}
	w.Subscribe(c.record)

	w.SetParams(Params{})
	time.Sleep(20 * time.Millisecond)

	// The abort never surfaces as an error state.
	assert.Equal(t, StateLoading, w.Snapshot().State)
	assert.Equal(t, []State{StateLoading}, c.states())
}

func TestWatcher_ErrorState(t *testing.T) {
	boom := errors.New("boom")
	first := true
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		if first {
			first = false
			return []string{"a"}, nil
		}
		return nil, boom
	})
	defer w.Close()

	c := &collector{}
	w.Subscribe(c.record)

	w.SetParams(Params{})
	waitForState(t, w, StateSuccess)
	w.Refetch()
	snap := waitForState(t, w, StateError)

	require.ErrorIs(t, snap.Err, boom)
	// The last successful data survives the failure.
	assert.Equal(t, []string{"a"}, snap.Data)
	assert.Equal(t, []State{StateLoading, StateSuccess, StateLoading, StateError}, c.states())
}

func TestWatcher_Refetch(t *testing.T) {
	var calls atomic.Int64
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		calls.Add(1)
		return nil, nil
	})
	defer w.Close()

	w.SetParams(Params{})
	waitForState(t, w, StateSuccess)
	w.Refetch()
	waitForState(t, w, StateSuccess)

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestWatcher_Unsubscribe(t *testing.T) {
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		return nil, nil
	})
	defer w.Close()

	c := &collector{}
	unsubscribe := w.Subscribe(c.record)
	unsubscribe()

	w.SetParams(Params{})
	waitForState(t, w, StateSuccess)
	assert.Empty(t, c.states())
}

func TestWatcher_Close(t *testing.T) {
	started := make(chan struct{})
	w := NewWatcher(func(ctx context.Context, p Params) ([]string, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	c := &collector{}
	w.Subscribe(c.record)

	w.SetParams(Params{})
	<-started
	w.Close()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []State{StateLoading}, c.states())

	// Operations after Close are no-ops.
	w.SetParams(Params{Filter: "x"})
	w.Refetch()
	assert.Equal(t, StateLoading, w.Snapshot().State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(42).String())
}
