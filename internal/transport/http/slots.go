package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

// Claimer is the minimal interface needed to claim a slot.
type Claimer interface {
	Claim(slotID, userID string, duration time.Duration) (engine.ClaimResult, error)
}

// HandleClaim returns an HTTP handler for claiming a slot.
func HandleClaim(eng Claimer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req claimRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "user_id is required")
			return
		}
		if req.Minutes <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidDuration, "minutes must be positive")
			return
		}

		res, err := eng.Claim(chi.URLParam(r, "slotID"), req.UserID, time.Duration(req.Minutes)*time.Minute)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		resp := claimResponse{Mode: string(res.Mode)}
		if res.Mode == engine.ClaimQueued {
			resp.Position = res.Position
		} else {
			resp.Reservation = newReservationJSON(res.Reservation)
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// Canceller is the minimal interface needed to cancel whatever a user holds.
type Canceller interface {
	Cancel(slotID, userID string) (engine.CancelResult, error)
}

// HandleCancel returns an HTTP handler that releases the caller's
// reservation, pending turn or waitlist spot.
func HandleCancel(eng Canceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeUserRequest(w, r)
		if !ok {
			return
		}

		res, err := eng.Cancel(chi.URLParam(r, "slotID"), req.UserID)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		resp := cancelResponse{Released: string(res.Released)}
		if !res.CooldownUntil.IsZero() {
			resp.CooldownUntil = &res.CooldownUntil
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Confirmer is the minimal interface needed to confirm a pending turn.
type Confirmer interface {
	Confirm(slotID, userID, nonce string) (engine.ConfirmResult, error)
}

// HandleConfirm returns an HTTP handler for confirming a pending turn.
func HandleConfirm(eng Confirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeOfferRequest(w, r)
		if !ok {
			return
		}

		res, err := eng.Confirm(chi.URLParam(r, "slotID"), req.UserID, req.Nonce)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, confirmResponse{
			Reservation: newReservationJSON(res.Reservation),
		})
	}
}

// Rejecter is the minimal interface needed to decline a pending turn.
type Rejecter interface {
	Reject(slotID, userID, nonce string) error
}

// HandleReject returns an HTTP handler for declining a pending turn.
func HandleReject(eng Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeOfferRequest(w, r)
		if !ok {
			return
		}
		if err := eng.Reject(chi.URLParam(r, "slotID"), req.UserID, req.Nonce); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Rejected bool `json:"rejected"`
		}{true})
	}
}

// QueueLeaver is the minimal interface needed to leave a waitlist.
type QueueLeaver interface {
	LeaveQueue(slotID, userID string) error
}

// HandleLeaveQueue returns an HTTP handler that removes only the caller's
// waitlist entry.
func HandleLeaveQueue(eng QueueLeaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeUserRequest(w, r)
		if !ok {
			return
		}
		if err := eng.LeaveQueue(chi.URLParam(r, "slotID"), req.UserID); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Left bool `json:"left"`
		}{true})
	}
}

// StatusReader is the minimal interface needed to read one slot.
type StatusReader interface {
	Status(slotID string) (engine.SlotStatus, error)
}

// HandleSlotStatus returns an HTTP handler for reading one slot's state.
func HandleSlotStatus(eng StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := eng.Status(chi.URLParam(r, "slotID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newStatusJSON(st))
	}
}

// StatusLister is the minimal interface needed to list every slot.
type StatusLister interface {
	Statuses() []engine.SlotStatus
}

// HandleListSlots returns an HTTP handler listing every slot in
// configuration order.
func HandleListSlots(eng StatusLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := eng.Statuses()
		out := make([]statusJSON, 0, len(statuses))
		for _, st := range statuses {
			out = append(out, newStatusJSON(st))
		}
		writeJSON(w, http.StatusOK, struct {
			Slots []statusJSON `json:"slots"`
		}{out})
	}
}

type claimRequest struct {
	UserID  string `json:"user_id"`
	Minutes int    `json:"minutes"`
}

type claimResponse struct {
	Mode        string           `json:"mode"`
	Position    int              `json:"position,omitempty"`
	Reservation *reservationJSON `json:"reservation,omitempty"`
}

type cancelResponse struct {
	Released      string     `json:"released"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

type confirmResponse struct {
	Reservation *reservationJSON `json:"reservation"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type offerRequest struct {
	UserID string `json:"user_id"`
	Nonce  string `json:"nonce"`
}

func decodeUserRequest(w http.ResponseWriter, r *http.Request) (userRequest, bool) {
	var req userRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return userRequest{}, false
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "user_id is required")
		return userRequest{}, false
	}
	return req, true
}

func decodeOfferRequest(w http.ResponseWriter, r *http.Request) (offerRequest, bool) {
	var req offerRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return offerRequest{}, false
	}
	if req.UserID == "" || req.Nonce == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "user_id and nonce are required")
		return offerRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
