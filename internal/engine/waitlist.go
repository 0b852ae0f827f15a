package engine

import "github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"

// waitlist is a FIFO of waiting users. Enqueue and dequeue at the ends are
// O(1); removal at an arbitrary position is O(n), fine for tens of entries.
type waitlist struct {
	entries []domain.WaitlistEntry
}

func (w *waitlist) len() int { return len(w.entries) }

func (w *waitlist) contains(userID string) bool {
	for _, e := range w.entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// enqueue appends the entry and returns its 1-based position.
func (w *waitlist) enqueue(e domain.WaitlistEntry) int {
	w.entries = append(w.entries, e)
	return len(w.entries)
}

func (w *waitlist) popHead() (domain.WaitlistEntry, bool) {
	if len(w.entries) == 0 {
		return domain.WaitlistEntry{}, false
	}
	head := w.entries[0]
	w.entries = w.entries[1:]
	return head, true
}

func (w *waitlist) remove(userID string) bool {
	for i, e := range w.entries {
		if e.UserID == userID {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (w *waitlist) snapshot() []domain.WaitlistEntry {
	out := make([]domain.WaitlistEntry, len(w.entries))
	copy(out, w.entries)
	return out
}
