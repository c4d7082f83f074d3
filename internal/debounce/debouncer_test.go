package debounce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryFragments is an in-memory FragmentStore with drain-and-clear
// semantics matching the redis implementation.
type memoryFragments struct {
	mu       sync.Mutex
	byUser   map[string][]string
	drainErr error
}

func newMemoryFragments() *memoryFragments {
	return &memoryFragments{byUser: map[string][]string{}}
}

func (s *memoryFragments) Append(ctx context.Context, user, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[user] = append(s.byUser[user], fragment)
	return nil
}

func (s *memoryFragments) Drain(ctx context.Context, user string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drainErr != nil {
		return nil, s.drainErr
	}
	out := s.byUser[user]
	delete(s.byUser, user)
	return out, nil
}

type turnRecorder struct {
	mu         sync.Mutex
	utterances []string
	users      []string
	inFlight   int32
	overlap    atomic.Bool
	block      chan struct{}
}

func (r *turnRecorder) turn(ctx context.Context, user, utterance string) error {
	if atomic.AddInt32(&r.inFlight, 1) > 1 {
		r.overlap.Store(true)
	}
	defer atomic.AddInt32(&r.inFlight, -1)

	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.utterances = append(r.utterances, utterance)
	r.users = append(r.users, user)
	r.mu.Unlock()
	return nil
}

func (r *turnRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.utterances))
	copy(out, r.utterances)
	return out
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met within timeout")
}

func TestCoalescesFragmentsIntoOneTurn(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{}
	d := New(store, rec.turn, 60*time.Millisecond, 5)

	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, "u1", "Me fale"))
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, d.Enqueue(ctx, "u1", "sobre o futuro da IA"))
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, d.Enqueue(ctx, "u1", "no Brasil."))

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second)
	require.Equal(t, []string{"Me fale sobre o futuro da IA no Brasil."}, rec.snapshot())

	// No second turn fires later.
	time.Sleep(150 * time.Millisecond)
	require.Len(t, rec.snapshot(), 1)
}

func TestTimerResetOnNewFragment(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{}
	quiet := 80 * time.Millisecond
	d := New(store, rec.turn, quiet, 5)

	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, "u1", "a"))
	time.Sleep(quiet - 20*time.Millisecond)
	require.NoError(t, d.Enqueue(ctx, "u1", "b"))

	// At the original deadline no turn has fired yet.
	time.Sleep(40 * time.Millisecond)
	require.Empty(t, rec.snapshot())

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second)
	require.Equal(t, []string{"a b"}, rec.snapshot())
}

func TestDistinctUsersRunIndependently(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{}
	d := New(store, rec.turn, 30*time.Millisecond, 5)

	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, "u1", "oi"))
	require.NoError(t, d.Enqueue(ctx, "u2", "olá"))

	waitFor(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.ElementsMatch(t, []string{"u1", "u2"}, rec.users)
}

func TestDrainFailureDropsTurn(t *testing.T) {
	store := newMemoryFragments()
	store.drainErr = errors.New("redis offline")
	rec := &turnRecorder{}
	d := New(store, rec.turn, 20*time.Millisecond, 5)

	require.NoError(t, d.Enqueue(context.Background(), "u1", "oi"))
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, rec.snapshot())
}

func TestFragmentsDuringCallbackStartNewCycle(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{block: make(chan struct{})}
	d := New(store, rec.turn, 25*time.Millisecond, 5)

	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, "u1", "primeira"))

	// Wait for the first callback to start, then feed a new fragment while
	// it is still blocked.
	waitFor(t, func() bool { return atomic.LoadInt32(&rec.inFlight) == 1 }, time.Second)
	require.NoError(t, d.Enqueue(ctx, "u1", "segunda"))

	close(rec.block)
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second)
	require.Equal(t, []string{"primeira", "segunda"}, rec.snapshot())
	require.False(t, rec.overlap.Load(), "turns for one user must never overlap")
}

func TestEmptyDrainDoesNotInvokeCallback(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{}
	d := New(store, rec.turn, 20*time.Millisecond, 5)

	// Arm a timer without going through Enqueue: the store stays empty.
	d.arm("u1")
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, rec.snapshot())
}

func TestShutdownCancelsPendingTimers(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{}
	d := New(store, rec.turn, 50*time.Millisecond, 5)

	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, "u1", "oi"))

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	d.Shutdown(shutdownCtx)

	time.Sleep(120 * time.Millisecond)
	require.Empty(t, rec.snapshot())

	require.ErrorIs(t, d.Enqueue(ctx, "u1", "tarde demais"), ErrShuttingDown)
}

func TestShutdownWaitsForInFlightTurn(t *testing.T) {
	store := newMemoryFragments()
	rec := &turnRecorder{block: make(chan struct{})}
	d := New(store, rec.turn, 10*time.Millisecond, 5)

	require.NoError(t, d.Enqueue(context.Background(), "u1", "oi"))
	waitFor(t, func() bool { return atomic.LoadInt32(&rec.inFlight) == 1 }, time.Second)

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(rec.block)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Shutdown(shutdownCtx)

	require.Equal(t, []string{"oi"}, rec.snapshot())
}
