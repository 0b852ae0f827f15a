package engine

import "github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"

// effects accumulates side effects produced while the registry mutex is
// held. They are emitted after the mutex is released so a slow sink can
// never delay or interleave with a state transition.
type effects struct {
	views  []domain.SlotView
	notes  []Notification
	events []Event
}

func (fx *effects) render(v domain.SlotView) { fx.views = append(fx.views, v) }
func (fx *effects) notify(n Notification)    { fx.notes = append(fx.notes, n) }
func (fx *effects) record(e Event)           { fx.events = append(fx.events, e) }

func (r *Registry) emit(fx *effects) {
	for _, v := range fx.views {
		r.renderer.Render(v)
	}
	for _, n := range fx.notes {
		r.notifier.Notify(n)
	}
	if r.recorder != nil {
		for _, e := range fx.events {
			r.recorder.Record(e)
		}
	}
}
