package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotNotFound         = errors.New("slot not found")
	ErrInvalidDuration      = errors.New("duration not allowed for this slot")
	ErrAlreadyParticipating = errors.New("already participating in this slot")
	ErrQueueFull            = errors.New("waitlist is full")
	ErrCooldownActive       = errors.New("cooldown active for this slot")
	ErrGlobalConflict       = errors.New("already participating in another slot")
	ErrNotHolder            = errors.New("nothing held by this user")
	ErrStaleOffer           = errors.New("offer is no longer available")
)

// QueueFullError rejects a claim when the waitlist is at capacity.
type QueueFullError struct {
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("waitlist is full (capacity %d)", e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

// CooldownActiveError rejects a claim while the user is penalized for a
// recent voluntary cancellation of this slot.
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active for another %s", e.Remaining.Round(time.Second))
}

func (e *CooldownActiveError) Is(target error) bool { return target == ErrCooldownActive }

// GlobalConflictError rejects an action because the user already holds a
// reservation, offer or waitlist position in another slot.
type GlobalConflictError struct {
	OtherSlotID string
	Kind        ParticipationKind
}

func (e *GlobalConflictError) Error() string {
	return fmt.Sprintf("already %s in slot %s", e.Kind, e.OtherSlotID)
}

func (e *GlobalConflictError) Is(target error) bool { return target == ErrGlobalConflict }
