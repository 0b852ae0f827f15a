package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

const recorderBuffer = 512

// Recorder forwards engine events to a Store from a single background
// writer. Record never blocks and stays safe through shutdown: events
// arriving when the buffer is full or after Close are dropped and counted.
type Recorder struct {
	store  *Store
	logger zerolog.Logger

	ch   chan engine.Event
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int64
}

func NewRecorder(store *Store, logger zerolog.Logger) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		ch:     make(chan engine.Event, recorderBuffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues the event for the background writer. Timer-driven
// transitions can still fire while the process shuts down, so a Record
// racing Close must degrade to a drop, never a panic.
func (r *Recorder) Record(e engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.dropped++
		return
	}
	select {
	case r.ch <- e:
	default:
		r.dropped++
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := r.store.Append(ctx, e)
		cancel()
		if err != nil {
			r.logger.Warn().Err(err).
				Str("slot_id", e.SlotID).
				Str("action", e.Action).
				Msg("history append failed")
		}
	}
}

// Close drains buffered events and stops the writer. Safe to call more
// than once; events recorded afterwards are dropped.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	<-r.done

	r.mu.Lock()
	dropped := r.dropped
	r.mu.Unlock()
	if dropped > 0 {
		r.logger.Warn().Int64("dropped", dropped).Msg("history events dropped under load")
	}
}
