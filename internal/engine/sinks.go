package engine

import (
	"time"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
)

// NotifyKind labels a state-change announcement.
type NotifyKind string

const (
	KindClaimed         NotifyKind = "claimed"
	KindQueued          NotifyKind = "queued"
	KindPromoted        NotifyKind = "promoted"
	KindConfirmed       NotifyKind = "confirmed"
	KindRejected        NotifyKind = "rejected"
	KindExpired         NotifyKind = "expired"
	KindTimedOut        NotifyKind = "timed_out"
	KindCancelled       NotifyKind = "cancelled"
	KindCooldownApplied NotifyKind = "cooldown_applied"
	KindCooldownSkipped NotifyKind = "cooldown_skipped"
	KindConflictSkipped NotifyKind = "conflict_skipped"
	KindSlotOpen        NotifyKind = "slot_open"
)

// Notification is a best-effort state-change announcement. UserID is empty
// for slot-wide announcements.
type Notification struct {
	SlotID  string
	UserID  string
	Kind    NotifyKind
	Message string
}

// Notifier delivers notifications. Implementations must not block; delivery
// failures never reach the engine.
type Notifier interface {
	Notify(n Notification)
}

// Renderer receives slot views after state transitions. Implementations must
// not block.
type Renderer interface {
	Render(view domain.SlotView)
}

// Event is one engine transition, recorded for the history trail.
type Event struct {
	SlotID   string
	UserID   string
	Action   string
	Duration time.Duration
	At       time.Time
}

// Recorder appends events to an external trail, best effort.
type Recorder interface {
	Record(e Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopRenderer struct{}

func (nopRenderer) Render(domain.SlotView) {}
