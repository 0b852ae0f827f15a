// Package notify holds the presentation-facing sinks of the engine: loggers,
// view deduplication and the Redis announcement channel. Everything here is
// best effort; a failed delivery never reaches the engine.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

// LogNotifier writes announcements to the process log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note engine.Notification) {
	n.logger.Info().
		Str("slot", note.SlotID).
		Str("user", note.UserID).
		Str("kind", string(note.Kind)).
		Msg(note.Message)
}

// LogRenderer writes slot views to the process log.
type LogRenderer struct {
	logger zerolog.Logger
}

func NewLogRenderer(logger zerolog.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Render(v domain.SlotView) {
	evt := r.logger.Info().
		Str("slot", v.SlotID).
		Str("phase", string(v.Phase))
	switch v.Phase {
	case domain.PhaseBusy:
		evt = evt.Str("owner", v.OwnerID).Dur("remaining", v.Remaining)
	case domain.PhasePending:
		evt = evt.Str("candidate", v.CandidateID).Dur("confirm_in", v.ConfirmIn)
	}
	evt.Msg("render")
}

// DedupRenderer suppresses consecutive identical views per slot so the
// downstream presentation is not redrawn for nothing.
type DedupRenderer struct {
	mu   sync.Mutex
	next engine.Renderer
	last map[string]domain.SlotView
}

func NewDedupRenderer(next engine.Renderer) *DedupRenderer {
	return &DedupRenderer{next: next, last: make(map[string]domain.SlotView)}
}

func (r *DedupRenderer) Render(v domain.SlotView) {
	r.mu.Lock()
	prev, seen := r.last[v.SlotID]
	if seen && prev == v {
		r.mu.Unlock()
		return
	}
	r.last[v.SlotID] = v
	r.mu.Unlock()
	r.next.Render(v)
}
