package engine

import (
	"time"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/clock"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
)

// slotState is one slot's mutable state. All access goes through the
// registry's mutex; each timer is owned by the state it guards and is stopped
// synchronously by any transition that supersedes it.
type slotState struct {
	def domain.Slot

	reservation *domain.Reservation
	resGen      uint64
	resTimer    clock.Timer

	offer      *domain.PendingOffer
	offerTimer clock.Timer

	waitlist  waitlist
	cooldowns cooldownLedger
}

func newSlotState(def domain.Slot) *slotState {
	return &slotState{def: def, cooldowns: newCooldownLedger()}
}

// participation reports how userID is attached to this slot, if at all.
func (s *slotState) participation(userID string) (domain.ParticipationKind, bool) {
	if s.reservation != nil && s.reservation.UserID == userID {
		return domain.ParticipationActive, true
	}
	if s.offer != nil && s.offer.UserID == userID {
		return domain.ParticipationOffer, true
	}
	if s.waitlist.contains(userID) {
		return domain.ParticipationQueued, true
	}
	return "", false
}

func (s *slotState) stopReservationTimer() {
	if s.resTimer != nil {
		s.resTimer.Stop()
		s.resTimer = nil
	}
}

func (s *slotState) stopOfferTimer() {
	if s.offerTimer != nil {
		s.offerTimer.Stop()
		s.offerTimer = nil
	}
}

func (s *slotState) view(now time.Time) domain.SlotView {
	v := domain.SlotView{
		SlotID: s.def.ID,
		Title:  s.def.Title,
		Phase:  domain.PhaseOpen,
	}
	switch {
	case s.reservation != nil:
		v.Phase = domain.PhaseBusy
		v.OwnerID = s.reservation.UserID
		v.Duration = s.reservation.Duration
		v.Remaining = s.reservation.Remaining(now)
	case s.offer != nil:
		v.Phase = domain.PhasePending
		v.CandidateID = s.offer.UserID
		v.Duration = s.offer.Duration
		v.ConfirmIn = s.offer.Remaining(now)
	}
	return v
}
