package domain

import "time"

// SlotPhase is the externally visible state of a slot.
type SlotPhase string

const (
	PhaseOpen    SlotPhase = "open"
	PhaseBusy    SlotPhase = "busy"
	PhasePending SlotPhase = "pending"
)

// SlotView is what the presentation layer renders for a slot. The struct is
// comparable so consecutive identical views can be suppressed.
type SlotView struct {
	SlotID string
	Title  string
	Phase  SlotPhase

	// Busy fields.
	OwnerID   string
	Duration  time.Duration
	Remaining time.Duration

	// Pending fields.
	CandidateID string
	ConfirmIn   time.Duration
}
