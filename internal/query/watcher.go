// Package query turns one-shot list calls into an observable subscription:
// a Watcher refetches whenever its parameters change, cancels the superseded
// request, and guarantees that only the most recently issued request can
// update its state.
package query

import (
	"context"
	"sync"

	"github.com/fishlogapp/fishlog-go/internal/api"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Params select what a Watcher fetches.
type Params struct {
	Filter string
	Sort   string
	Expand string
}

// FetchFunc performs the actual list call for a parameter set.
type FetchFunc[T any] func(ctx context.Context, p Params) ([]T, error)

// Snapshot is an immutable view of a Watcher at one point in time. Data
// holds the last successful result; Err is set only in StateError.
type Snapshot[T any] struct {
	State State
	Data  []T
	Err   error
}

type Watcher[T any] struct {
	fetch FetchFunc[T]

	mu     sync.Mutex
	params Params
	// gen increases on every issued request; a response whose generation is
	// no longer current is discarded, even if the transport ignored the
	// cancellation signal.
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot[T]
	subs   map[int]func(Snapshot[T])
	nextID int
	closed bool
}

func NewWatcher[T any](fetch FetchFunc[T]) *Watcher[T] {
	return &Watcher[T]{
		fetch: fetch,
		snap:  Snapshot[T]{State: StateIdle},
		subs:  make(map[int]func(Snapshot[T])),
	}
}

// SetParams replaces the query parameters and refetches. Setting identical
// parameters is a no-op; the first call always fetches.
func (w *Watcher[T]) SetParams(p Params) {
	w.mu.Lock()
	if w.closed || (w.snap.State != StateIdle && p == w.params) {
		w.mu.Unlock()
		return
	}
	w.params = p
	w.startLocked()
}

// Refetch re-issues the current query, for callers that just performed a
// mutation the parameters would not pick up.
func (w *Watcher[T]) Refetch() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.startLocked()
}

// startLocked supersedes any in-flight request and launches a new one. Called
// with w.mu held; releases it.
func (w *Watcher[T]) startLocked() {
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	params := w.params
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.snap = Snapshot[T]{State: StateLoading, Data: w.snap.Data}
	subs := w.snapshotSubs()
	snap := w.snap
	w.mu.Unlock()

	notify(subs, snap)

	go w.run(ctx, gen, params)
}

func (w *Watcher[T]) run(ctx context.Context, gen uint64, params Params) {
	items, err := w.fetch(ctx, params)

	w.mu.Lock()
	if w.closed || gen != w.gen {
		// Superseded. Even a successful late response must not overwrite
		// the newer request's result.
		w.mu.Unlock()
		return
	}
	if err != nil {
		if api.IsAbort(err) {
			// Cancelled on purpose; a newer request owns the state now.
			w.mu.Unlock()
			return
		}
		w.snap = Snapshot[T]{State: StateError, Data: w.snap.Data, Err: err}
	} else {
		w.snap = Snapshot[T]{State: StateSuccess, Data: items}
	}
	subs := w.snapshotSubs()
	snap := w.snap
	w.mu.Unlock()

	notify(subs, snap)
}

// Snapshot returns the current state.
func (w *Watcher[T]) Snapshot() Snapshot[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Subscribe registers fn to run on every state transition. Each failure is
// delivered exactly once. The returned func removes the subscription.
func (w *Watcher[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Close cancels any in-flight request and stops all future updates.
func (w *Watcher[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.subs = make(map[int]func(Snapshot[T]))
}

func (w *Watcher[T]) snapshotSubs() []func(Snapshot[T]) {
	subs := make([]func(Snapshot[T]), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify[T any](subs []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range subs {
		fn(snap)
	}
}
