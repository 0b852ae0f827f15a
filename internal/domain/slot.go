package domain

import "time"

// Slot is an independently reservable resource unit with a small menu of
// allowed durations. Immutable after creation; built from configuration.
type Slot struct {
	ID            string
	Title         string
	Durations     []time.Duration
	QueueCapacity int
	ConfirmWindow time.Duration
	Cooldown      time.Duration
}

// AllowsDuration reports whether d is on the slot's duration menu.
func (s Slot) AllowsDuration(d time.Duration) bool {
	for _, allowed := range s.Durations {
		if allowed == d {
			return true
		}
	}
	return false
}

// Reservation is a confirmed, time-boxed exclusive hold on a slot.
// At most one per slot.
type Reservation struct {
	SlotID   string
	UserID   string
	Duration time.Duration
	StartAt  time.Time
	EndAt    time.Time
}

// Remaining returns the time left before the reservation ends, floored at zero.
func (r Reservation) Remaining(now time.Time) time.Duration {
	if rem := r.EndAt.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// PendingOffer is a time-boxed, nonce-guarded invitation extended to the next
// waitlisted user. At most one per slot, never alongside a Reservation.
type PendingOffer struct {
	SlotID   string
	UserID   string
	Duration time.Duration
	Nonce    string
	Deadline time.Time
}

// Remaining returns the time left to confirm, floored at zero.
func (o PendingOffer) Remaining(now time.Time) time.Duration {
	if rem := o.Deadline.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// WaitlistEntry is one position in a slot's FIFO waitlist.
type WaitlistEntry struct {
	SlotID     string
	UserID     string
	Duration   time.Duration
	EnqueuedAt time.Time
}

// CooldownEntry bars a user from re-claiming a slot until ExpiresAt. Written
// only when the user cancels their own active reservation.
type CooldownEntry struct {
	SlotID    string
	UserID    string
	ExpiresAt time.Time
}

// ParticipationKind classifies how a user is attached to a slot.
type ParticipationKind string

const (
	ParticipationActive ParticipationKind = "active"
	ParticipationOffer  ParticipationKind = "pending"
	ParticipationQueued ParticipationKind = "queued"
)

// Participation records where a user already takes part, used to enforce the
// one-slot-per-user invariant.
type Participation struct {
	SlotID string
	Kind   ParticipationKind
}
