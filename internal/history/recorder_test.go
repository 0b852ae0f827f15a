package history

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

func TestRecorderShutdown(t *testing.T) {
	t.Run("record after close is a silent drop", func(t *testing.T) {
		r := NewRecorder(NewStore(nil), zerolog.Nop())
		r.Close()

		r.Record(engine.Event{
			SlotID: "pico-4",
			UserID: "rafa",
			Action: "expired",
			At:     time.Now(),
		})

		r.mu.Lock()
		dropped := r.dropped
		r.mu.Unlock()
		if dropped != 1 {
			t.Fatalf("expected 1 dropped event, got %d", dropped)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		r := NewRecorder(NewStore(nil), zerolog.Nop())
		r.Close()
		r.Close()
	})
}
