package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
)

const (
	codeNotFound             = "not_found"
	codeMethodNotAllowed     = "method_not_allowed"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeSlotNotFound         = "slot_not_found"
	codeInvalidDuration      = "invalid_duration"
	codeAlreadyParticipating = "already_participating"
	codeGlobalConflict       = "global_conflict"
	codeQueueFull            = "queue_full"
	codeCooldownActive       = "cooldown_active"
	codeNotHolder            = "not_holder"
	codeStaleOffer           = "stale_offer"
	codeRateLimited          = "rate_limited"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Extra context, present only for the codes that carry it.
	Capacity         int    `json:"capacity,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	OtherSlotID      string `json:"other_slot_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeEngineError maps engine errors onto HTTP statuses and stable codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var queueFull *domain.QueueFullError
	if errors.As(err, &queueFull) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:    err.Error(),
			Code:     codeQueueFull,
			Capacity: queueFull.Capacity,
		})
		return
	}
	var cooldown *domain.CooldownActiveError
	if errors.As(err, &cooldown) {
		seconds := int64(cooldown.Remaining / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:            err.Error(),
			Code:             codeCooldownActive,
			RemainingSeconds: seconds,
		})
		return
	}
	var conflict *domain.GlobalConflictError
	if errors.As(err, &conflict) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:       err.Error(),
			Code:        codeGlobalConflict,
			OtherSlotID: conflict.OtherSlotID,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, codeSlotNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, codeInvalidDuration, err.Error())
	case errors.Is(err, domain.ErrAlreadyParticipating):
		writeError(w, http.StatusConflict, codeAlreadyParticipating, err.Error())
	case errors.Is(err, domain.ErrNotHolder):
		writeError(w, http.StatusForbidden, codeNotHolder, err.Error())
	case errors.Is(err, domain.ErrStaleOffer):
		writeError(w, http.StatusConflict, codeStaleOffer, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
