package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

type fakeEngine struct {
	claimResult   engine.ClaimResult
	cancelResult  engine.CancelResult
	confirmResult engine.ConfirmResult
	status        engine.SlotStatus
	statuses      []engine.SlotStatus
	err           error

	gotSlotID string
	gotUserID string
	gotNonce  string
}

func (f *fakeEngine) Claim(slotID, userID string, duration time.Duration) (engine.ClaimResult, error) {
	f.gotSlotID, f.gotUserID = slotID, userID
	return f.claimResult, f.err
}

func (f *fakeEngine) Cancel(slotID, userID string) (engine.CancelResult, error) {
	f.gotSlotID, f.gotUserID = slotID, userID
	return f.cancelResult, f.err
}

func (f *fakeEngine) Confirm(slotID, userID, nonce string) (engine.ConfirmResult, error) {
	f.gotSlotID, f.gotUserID, f.gotNonce = slotID, userID, nonce
	return f.confirmResult, f.err
}

func (f *fakeEngine) Reject(slotID, userID, nonce string) error {
	f.gotSlotID, f.gotUserID, f.gotNonce = slotID, userID, nonce
	return f.err
}

func (f *fakeEngine) LeaveQueue(slotID, userID string) error {
	f.gotSlotID, f.gotUserID = slotID, userID
	return f.err
}

func (f *fakeEngine) Status(slotID string) (engine.SlotStatus, error) {
	f.gotSlotID = slotID
	return f.status, f.err
}

func (f *fakeEngine) Statuses() []engine.SlotStatus {
	return f.statuses
}

func newTestRouter(eng Engine) http.Handler {
	return NewRouter(eng, RouterConfig{Logger: zerolog.Nop()})
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleClaim(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	active := engine.ClaimResult{
		Mode: engine.ClaimActive,
		Reservation: domain.Reservation{
			SlotID:   "pico-4",
			UserID:   "rafa",
			Duration: 30 * time.Minute,
			StartAt:  now,
			EndAt:    now.Add(30 * time.Minute),
		},
	}

	tests := []struct {
		name           string
		body           string
		result         engine.ClaimResult
		engineErr      error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "active claim",
			body:           `{"user_id":"rafa","minutes":30}`,
			result:         active,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"mode":"active"`,
		},
		{
			name:           "queued claim",
			body:           `{"user_id":"cami","minutes":30}`,
			result:         engine.ClaimResult{Mode: engine.ClaimQueued, Position: 2},
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"position":2`,
		},
		{
			name:           "invalid json",
			body:           `{"user_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_request_body"`,
		},
		{
			name:           "unknown field",
			body:           `{"user_id":"rafa","minutes":30,"extra":1}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing user",
			body:           `{"minutes":30}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"missing_required_field"`,
		},
		{
			name:           "zero minutes",
			body:           `{"user_id":"rafa"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_duration"`,
		},
		{
			name:           "slot not found",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      domain.ErrSlotNotFound,
			expectedStatus: http.StatusNotFound,
			expectedSubstr: `"code":"slot_not_found"`,
		},
		{
			name:           "duration not on menu",
			body:           `{"user_id":"rafa","minutes":7}`,
			engineErr:      domain.ErrInvalidDuration,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_duration"`,
		},
		{
			name:           "queue full carries capacity",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      &domain.QueueFullError{Capacity: 2},
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"capacity":2`,
		},
		{
			name:           "cooldown carries remaining seconds",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      &domain.CooldownActiveError{Remaining: 90 * time.Second},
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"remaining_seconds":90`,
		},
		{
			name:           "conflict carries other slot",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      &domain.GlobalConflictError{OtherSlotID: "pico-5", Kind: domain.ParticipationActive},
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"other_slot_id":"pico-5"`,
		},
		{
			name:           "already participating",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      domain.ErrAlreadyParticipating,
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"code":"already_participating"`,
		},
		{
			name:           "internal error",
			body:           `{"user_id":"rafa","minutes":30}`,
			engineErr:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: `"code":"internal_error"`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			eng := &fakeEngine{claimResult: tt.result, err: tt.engineErr}
			rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/claim", tt.body)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}

	t.Run("slot id comes from the path", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{claimResult: active}
		doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-7/claim", `{"user_id":"rafa","minutes":30}`)
		if eng.gotSlotID != "pico-7" {
			t.Fatalf("expected slot from path, got %q", eng.gotSlotID)
		}
	})
}

func TestHandleCancel(t *testing.T) {
	t.Parallel()

	t.Run("active release includes cooldown", func(t *testing.T) {
		t.Parallel()
		until := time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC)
		eng := &fakeEngine{cancelResult: engine.CancelResult{Released: engine.ReleasedActive, CooldownUntil: until}}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/cancel", `{"user_id":"rafa"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `"released":"active"`) || !strings.Contains(body, `"cooldown_until"`) {
			t.Fatalf("unexpected body: %s", body)
		}
	})

	t.Run("queue release has no cooldown field", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{cancelResult: engine.CancelResult{Released: engine.ReleasedQueue}}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/cancel", `{"user_id":"rafa"}`)

		if strings.Contains(rec.Body.String(), "cooldown_until") {
			t.Fatalf("expected no cooldown field: %s", rec.Body.String())
		}
	})

	t.Run("not holder", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{err: domain.ErrNotHolder}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/cancel", `{"user_id":"luis"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"not_holder"`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})
}

func TestHandleConfirm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{confirmResult: engine.ConfirmResult{Reservation: domain.Reservation{
			SlotID: "pico-4", UserID: "cami", Duration: time.Hour, StartAt: now, EndAt: now.Add(time.Hour),
		}}}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/confirm", `{"user_id":"cami","nonce":"n-1"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if eng.gotNonce != "n-1" {
			t.Fatalf("nonce not forwarded, got %q", eng.gotNonce)
		}
		if !strings.Contains(rec.Body.String(), `"minutes":60`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("missing nonce", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/confirm", `{"user_id":"cami"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("stale offer", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{err: domain.ErrStaleOffer}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/confirm", `{"user_id":"cami","nonce":"n-old"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"stale_offer"`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})
}

func TestHandleReject(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/reject", `{"user_id":"cami","nonce":"n-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if eng.gotSlotID != "pico-4" || eng.gotUserID != "cami" || eng.gotNonce != "n-1" {
		t.Fatalf("arguments not forwarded: %+v", eng)
	}
}

func TestHandleLeaveQueue(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/queue/leave", `{"user_id":"luis"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("not queued", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{err: domain.ErrNotHolder}
		rec := doJSON(t, newTestRouter(eng), http.MethodPost, "/slots/pico-4/queue/leave", `{"user_id":"luis"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestHandleSlotStatus(t *testing.T) {
	t.Parallel()

	slot := domain.Slot{
		ID:            "pico-4",
		Title:         "PICO 4",
		Durations:     []time.Duration{30 * time.Minute, time.Hour},
		QueueCapacity: 2,
		ConfirmWindow: 45 * time.Second,
	}

	t.Run("busy slot", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		eng := &fakeEngine{status: engine.SlotStatus{
			Slot: slot,
			Reservation: &domain.Reservation{
				SlotID: "pico-4", UserID: "rafa", Duration: 30 * time.Minute,
				StartAt: now, EndAt: now.Add(30 * time.Minute),
			},
			Waitlist: []domain.WaitlistEntry{{SlotID: "pico-4", UserID: "cami", Duration: time.Hour}},
		}}
		rec := doJSON(t, newTestRouter(eng), http.MethodGet, "/slots/pico-4", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{`"phase":"busy"`, `"user_id":"rafa"`, `"user_id":"cami"`, `"minutes":[30,60]`} {
			if !strings.Contains(body, want) {
				t.Fatalf("expected %q in body: %s", want, body)
			}
		}
	})

	t.Run("pending slot exposes offer", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{status: engine.SlotStatus{
			Slot: slot,
			Offer: &engine.OfferSummary{
				UserID: "cami", Duration: time.Hour, Nonce: "n-7",
				Deadline:  time.Date(2025, 6, 1, 12, 0, 45, 0, time.UTC),
				Remaining: 30 * time.Second,
			},
		}}
		rec := doJSON(t, newTestRouter(eng), http.MethodGet, "/slots/pico-4", "")

		body := rec.Body.String()
		for _, want := range []string{`"phase":"pending"`, `"nonce":"n-7"`, `"remaining_seconds":30`} {
			if !strings.Contains(body, want) {
				t.Fatalf("expected %q in body: %s", want, body)
			}
		}
	})

	t.Run("unknown slot", func(t *testing.T) {
		t.Parallel()
		eng := &fakeEngine{err: domain.ErrSlotNotFound}
		rec := doJSON(t, newTestRouter(eng), http.MethodGet, "/slots/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleListSlots(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{statuses: []engine.SlotStatus{
		{Slot: domain.Slot{ID: "pico-4", Title: "PICO 4"}},
		{Slot: domain.Slot{ID: "pico-5", Title: "PICO 5"}},
	}}
	rec := doJSON(t, newTestRouter(eng), http.MethodGet, "/slots", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"id":"pico-4"`) || !strings.Contains(body, `"id":"pico-5"`) {
		t.Fatalf("expected both slots: %s", body)
	}
	if !strings.Contains(body, `"phase":"open"`) {
		t.Fatalf("expected open phase: %s", body)
	}
}
