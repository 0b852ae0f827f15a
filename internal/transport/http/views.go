package http

import (
	"time"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

type reservationJSON struct {
	UserID  string    `json:"user_id"`
	Minutes int       `json:"minutes"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

func newReservationJSON(res domain.Reservation) *reservationJSON {
	return &reservationJSON{
		UserID:  res.UserID,
		Minutes: int(res.Duration / time.Minute),
		StartAt: res.StartAt,
		EndAt:   res.EndAt,
	}
}

type offerJSON struct {
	UserID           string    `json:"user_id"`
	Minutes          int       `json:"minutes"`
	Nonce            string    `json:"nonce"`
	Deadline         time.Time `json:"deadline"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

type waitlistEntryJSON struct {
	UserID  string `json:"user_id"`
	Minutes int    `json:"minutes"`
}

type statusJSON struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Minutes     []int               `json:"minutes"`
	Phase       string              `json:"phase"`
	Reservation *reservationJSON    `json:"reservation,omitempty"`
	Offer       *offerJSON          `json:"offer,omitempty"`
	Waitlist    []waitlistEntryJSON `json:"waitlist"`
}

func newStatusJSON(st engine.SlotStatus) statusJSON {
	out := statusJSON{
		ID:       st.Slot.ID,
		Title:    st.Slot.Title,
		Minutes:  make([]int, 0, len(st.Slot.Durations)),
		Phase:    string(domain.PhaseOpen),
		Waitlist: make([]waitlistEntryJSON, 0, len(st.Waitlist)),
	}
	for _, d := range st.Slot.Durations {
		out.Minutes = append(out.Minutes, int(d/time.Minute))
	}
	if st.Reservation != nil {
		out.Phase = string(domain.PhaseBusy)
		out.Reservation = newReservationJSON(*st.Reservation)
	}
	if st.Offer != nil {
		out.Phase = string(domain.PhasePending)
		out.Offer = &offerJSON{
			UserID:           st.Offer.UserID,
			Minutes:          int(st.Offer.Duration / time.Minute),
			Nonce:            st.Offer.Nonce,
			Deadline:         st.Offer.Deadline,
			RemainingSeconds: int64(st.Offer.Remaining / time.Second),
		}
	}
	for _, e := range st.Waitlist {
		out.Waitlist = append(out.Waitlist, waitlistEntryJSON{
			UserID:  e.UserID,
			Minutes: int(e.Duration / time.Minute),
		})
	}
	return out
}
