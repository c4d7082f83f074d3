package debounce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// ErrShuttingDown is returned for fragments arriving after Shutdown began.
var ErrShuttingDown = errors.New("debouncer shutting down")

// FragmentStore is the buffer the debouncer appends to and drains from.
type FragmentStore interface {
	Append(ctx context.Context, user, fragment string) error
	Drain(ctx context.Context, user string) ([]string, error)
}

// TurnFunc starts one turn with the coalesced utterance.
type TurnFunc func(ctx context.Context, user, utterance string) error

// Debouncer collapses a burst of fragments from one user into a single turn.
// Each fragment re-arms the user's quiet-period timer; only when the user
// stops sending does the accumulated buffer become one utterance.
//
// Cancellation uses a per-user generation counter: arming bumps the
// generation, and an expired timer whose generation is stale drops its firing
// without running the callback. Turns for one user are serialized by a
// per-user mutex held across drain and callback; distinct users run fully in
// parallel, bounded globally by the semaphore.
type Debouncer struct {
	store FragmentStore
	turn  TurnFunc
	quiet time.Duration
	sem   *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	gens   map[string]uint64
	timers map[string]*time.Timer
	locks  map[string]*sync.Mutex

	wg sync.WaitGroup
}

func New(store FragmentStore, turn TurnFunc, quiet time.Duration, maxConcurrentTurns int64) *Debouncer {
	if maxConcurrentTurns <= 0 {
		maxConcurrentTurns = 5
	}
	return &Debouncer{
		store:  store,
		turn:   turn,
		quiet:  quiet,
		sem:    semaphore.NewWeighted(maxConcurrentTurns),
		gens:   make(map[string]uint64),
		timers: make(map[string]*time.Timer),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Enqueue buffers one fragment and arms (or resets) the user's timer.
func (d *Debouncer) Enqueue(ctx context.Context, user, fragment string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrShuttingDown
	}
	d.mu.Unlock()

	if err := d.store.Append(ctx, user, fragment); err != nil {
		return err
	}
	d.arm(user)
	return nil
}

func (d *Debouncer) arm(user string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.gens[user]++
	gen := d.gens[user]
	if t := d.timers[user]; t != nil {
		t.Stop()
	}
	d.timers[user] = time.AfterFunc(d.quiet, func() { d.fire(user, gen) })
	log.Debug().Str("user", user).Uint64("gen", gen).Dur("quiet", d.quiet).Msg("debounce_timer_armed")
}

// fire runs on the expired timer's goroutine and continues straight into the
// turn callback when its generation is still current.
func (d *Debouncer) fire(user string, gen uint64) {
	d.mu.Lock()
	if d.closed || d.gens[user] != gen {
		// A newer fragment re-armed (or shutdown started) after this timer
		// expired: the firing lost the race and must not run the callback.
		d.mu.Unlock()
		log.Debug().Str("user", user).Uint64("gen", gen).Msg("debounce_timer_stale")
		return
	}
	delete(d.timers, user)
	lock := d.lockFor(user)
	d.wg.Add(1)
	d.mu.Unlock()
	defer d.wg.Done()

	lock.Lock()
	defer lock.Unlock()

	ctx := context.Background()
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer d.sem.Release(1)

	fragments, err := d.store.Drain(ctx, user)
	if err != nil {
		// The turn is dropped on the floor; fragments already buffered again
		// will arm a fresh timer.
		log.Error().Err(err).Str("user", user).Msg("debounce_drain_error")
		return
	}
	if len(fragments) == 0 {
		log.Debug().Str("user", user).Msg("debounce_nothing_to_drain")
		return
	}

	utterance := strings.TrimSpace(strings.Join(fragments, " "))
	if utterance == "" {
		return
	}
	log.Info().Str("user", user).Int("fragments", len(fragments)).Msg("debounce_turn_start")
	if err := d.turn(ctx, user, utterance); err != nil {
		log.Error().Err(err).Str("user", user).Msg("debounce_turn_error")
	}
}

// lockFor returns the user's turn-serialization mutex; callers hold d.mu.
func (d *Debouncer) lockFor(user string) *sync.Mutex {
	if l, ok := d.locks[user]; ok {
		return l
	}
	l := &sync.Mutex{}
	d.locks[user] = l
	return l
}

// Shutdown cancels every pending timer and waits for in-flight callbacks
// until ctx expires, then abandons the rest.
func (d *Debouncer) Shutdown(ctx context.Context) {
	d.mu.Lock()
	d.closed = true
	for user, t := range d.timers {
		t.Stop()
		delete(d.timers, user)
	}
	for user := range d.gens {
		d.gens[user]++
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("debouncer_drained")
	case <-ctx.Done():
		log.Warn().Msg("debouncer_shutdown_deadline_abandoning_turns")
	}
}
