package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/clock"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/obs"
)

// Registry owns every slot state machine and is the engine's entry point.
// A single mutex serializes all actions, including timer-fired ones, so the
// cross-slot exclusivity scan always observes a consistent snapshot.
type Registry struct {
	mu    sync.Mutex
	clock clock.Clock
	slots map[string]*slotState
	order []string

	renderer Renderer
	notifier Notifier
	recorder Recorder
	metrics  *obs.Metrics
	logger   zerolog.Logger
	newNonce func() string
}

// NewRegistry builds a registry from validated slot definitions. Definitions
// are trusted here; config validation happens before the registry exists.
func NewRegistry(defs []domain.Slot, clk clock.Clock, opts ...Option) *Registry {
	r := &Registry{
		clock:    clk,
		slots:    make(map[string]*slotState, len(defs)),
		renderer: nopRenderer{},
		notifier: nopNotifier{},
		logger:   zerolog.Nop(),
		newNonce: uuid.NewString,
	}
	for _, def := range defs {
		r.slots[def.ID] = newSlotState(def)
		r.order = append(r.order, def.ID)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type Option func(*Registry)

// WithRenderer sets the presentation sink for slot views.
func WithRenderer(renderer Renderer) Option {
	return func(r *Registry) {
		if renderer != nil {
			r.renderer = renderer
		}
	}
}

// WithNotifier sets the sink for state-change announcements.
func WithNotifier(notifier Notifier) Option {
	return func(r *Registry) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithRecorder sets the history trail sink.
func WithRecorder(recorder Recorder) Option {
	return func(r *Registry) { r.recorder = recorder }
}

// WithMetrics wires prometheus counters and gauges.
func WithMetrics(m *obs.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// withNonceSource overrides nonce generation in tests.
func withNonceSource(fn func() string) Option {
	return func(r *Registry) { r.newNonce = fn }
}

// ClaimMode says whether a claim went active immediately or was queued.
type ClaimMode string

const (
	ClaimActive ClaimMode = "active"
	ClaimQueued ClaimMode = "queued"
)

type ClaimResult struct {
	Mode        ClaimMode
	Position    int // 1-based waitlist position, queued mode only
	Reservation domain.Reservation
}

// Released says what a successful cancel tore down.
type Released string

const (
	ReleasedActive  Released = "active"
	ReleasedPending Released = "pending"
	ReleasedQueue   Released = "queue"
)

type CancelResult struct {
	Released      Released
	CooldownUntil time.Time // zero unless an active reservation was cancelled
}

type ConfirmResult struct {
	Reservation domain.Reservation
}

// OfferSummary is the display form of a pending offer. Remaining is computed
// from the deadline on read; the engine keeps no live countdown.
type OfferSummary struct {
	UserID    string
	Duration  time.Duration
	Nonce     string
	Deadline  time.Time
	Remaining time.Duration
}

// SlotStatus is a point-in-time snapshot of one slot.
type SlotStatus struct {
	Slot        domain.Slot
	Reservation *domain.Reservation
	Offer       *OfferSummary
	Waitlist    []domain.WaitlistEntry
}

// Claim attempts to reserve a slot for the given duration, queueing the user
// when the slot is taken.
func (r *Registry) Claim(slotID, userID string, duration time.Duration) (ClaimResult, error) {
	var fx effects
	r.mu.Lock()
	res, err := r.claimLocked(&fx, slotID, userID, duration)
	r.mu.Unlock()
	r.emit(&fx)

	if r.metrics != nil {
		switch {
		case err != nil:
			r.metrics.ClaimTotal.WithLabelValues("rejected").Inc()
		case res.Mode == ClaimActive:
			r.metrics.ClaimTotal.WithLabelValues("active").Inc()
		default:
			r.metrics.ClaimTotal.WithLabelValues("queued").Inc()
		}
	}
	r.logger.Debug().Str("slot", slotID).Str("user", userID).
		Dur("duration", duration).Err(err).Str("mode", string(res.Mode)).
		Msg("claim")
	return res, err
}

func (r *Registry) claimLocked(fx *effects, slotID, userID string, duration time.Duration) (ClaimResult, error) {
	s, ok := r.slots[slotID]
	if !ok {
		return ClaimResult{}, domain.ErrSlotNotFound
	}
	if !s.def.AllowsDuration(duration) {
		return ClaimResult{}, domain.ErrInvalidDuration
	}

	now := r.clock.Now()

	// Cooldown is checked before exclusivity and capacity.
	if rem, active := s.cooldowns.remaining(userID, now); active {
		return ClaimResult{}, &domain.CooldownActiveError{Remaining: rem}
	}
	if _, here := s.participation(userID); here {
		return ClaimResult{}, domain.ErrAlreadyParticipating
	}
	if p := r.findParticipation(userID, slotID); p != nil {
		return ClaimResult{}, &domain.GlobalConflictError{OtherSlotID: p.SlotID, Kind: p.Kind}
	}

	if s.reservation == nil && s.offer == nil {
		res := r.activate(fx, s, userID, duration, now, KindClaimed)
		return ClaimResult{Mode: ClaimActive, Reservation: res}, nil
	}

	if s.waitlist.len() >= s.def.QueueCapacity {
		return ClaimResult{}, &domain.QueueFullError{Capacity: s.def.QueueCapacity}
	}
	pos := s.waitlist.enqueue(domain.WaitlistEntry{
		SlotID:     slotID,
		UserID:     userID,
		Duration:   duration,
		EnqueuedAt: now,
	})
	if r.metrics != nil {
		r.metrics.WaitingUsers.Inc()
	}
	fx.render(s.view(now))
	fx.notify(Notification{
		SlotID:  slotID,
		UserID:  userID,
		Kind:    KindQueued,
		Message: fmt.Sprintf("joined the waitlist for %s at position %d", s.def.Title, pos),
	})
	fx.record(Event{SlotID: slotID, UserID: userID, Action: "queued", Duration: duration, At: now})
	return ClaimResult{Mode: ClaimQueued, Position: pos}, nil
}

// Cancel releases whatever the user holds in the slot: the active
// reservation (applying the cooldown penalty), the pending offer, or a
// waitlist position.
func (r *Registry) Cancel(slotID, userID string) (CancelResult, error) {
	var fx effects
	r.mu.Lock()
	res, err := r.cancelLocked(&fx, slotID, userID)
	r.mu.Unlock()
	r.emit(&fx)

	if err == nil && r.metrics != nil {
		r.metrics.CancelTotal.WithLabelValues(string(res.Released)).Inc()
	}
	r.logger.Debug().Str("slot", slotID).Str("user", userID).Err(err).
		Str("released", string(res.Released)).Msg("cancel")
	return res, err
}

func (r *Registry) cancelLocked(fx *effects, slotID, userID string) (CancelResult, error) {
	s, ok := r.slots[slotID]
	if !ok {
		return CancelResult{}, domain.ErrSlotNotFound
	}
	now := r.clock.Now()

	if s.reservation != nil && s.reservation.UserID == userID {
		s.stopReservationTimer()
		s.reservation = nil
		if r.metrics != nil {
			r.metrics.ActiveReservations.Dec()
		}

		result := CancelResult{Released: ReleasedActive}
		if s.def.Cooldown > 0 {
			until := now.Add(s.def.Cooldown)
			s.cooldowns.set(userID, until)
			result.CooldownUntil = until
			fx.notify(Notification{
				SlotID:  slotID,
				UserID:  userID,
				Kind:    KindCooldownApplied,
				Message: fmt.Sprintf("cooldown on %s until %s", s.def.Title, until.Format(time.RFC3339)),
			})
		}
		fx.notify(Notification{
			SlotID:  slotID,
			UserID:  userID,
			Kind:    KindCancelled,
			Message: fmt.Sprintf("cancelled the active reservation on %s", s.def.Title),
		})
		fx.record(Event{SlotID: slotID, UserID: userID, Action: "cancelled_active", At: now})
		r.promote(fx, s, now)
		return result, nil
	}

	if s.offer != nil && s.offer.UserID == userID {
		s.stopOfferTimer()
		s.offer = nil
		if r.metrics != nil {
			r.metrics.PendingOffers.Dec()
		}
		fx.notify(Notification{
			SlotID:  slotID,
			UserID:  userID,
			Kind:    KindCancelled,
			Message: fmt.Sprintf("gave up the pending turn on %s", s.def.Title),
		})
		fx.record(Event{SlotID: slotID, UserID: userID, Action: "cancelled_pending", At: now})
		r.promote(fx, s, now)
		return CancelResult{Released: ReleasedPending}, nil
	}

	if s.waitlist.remove(userID) {
		if r.metrics != nil {
			r.metrics.WaitingUsers.Dec()
		}
		fx.record(Event{SlotID: slotID, UserID: userID, Action: "left_queue", At: now})
		return CancelResult{Released: ReleasedQueue}, nil
	}

	return CancelResult{}, domain.ErrNotHolder
}

// Confirm turns a pending offer into an active reservation. The nonce must
// match the live offer and the user may not have joined another slot while
// waiting.
func (r *Registry) Confirm(slotID, userID, nonce string) (ConfirmResult, error) {
	var fx effects
	r.mu.Lock()
	res, err := r.confirmLocked(&fx, slotID, userID, nonce)
	r.mu.Unlock()
	r.emit(&fx)

	if r.metrics != nil {
		r.metrics.ConfirmTotal.WithLabelValues(confirmResultLabel(err)).Inc()
	}
	r.logger.Debug().Str("slot", slotID).Str("user", userID).Err(err).Msg("confirm")
	return res, err
}

func (r *Registry) confirmLocked(fx *effects, slotID, userID, nonce string) (ConfirmResult, error) {
	s, offer, err := r.liveOffer(slotID, userID, nonce)
	if err != nil {
		return ConfirmResult{}, err
	}
	now := r.clock.Now()

	// The user may have been admitted elsewhere while this offer was open.
	if p := r.findParticipation(userID, slotID); p != nil {
		r.resolveOffer(s)
		fx.notify(Notification{
			SlotID:  slotID,
			UserID:  userID,
			Kind:    KindConflictSkipped,
			Message: fmt.Sprintf("turn on %s dropped: already %s in %s", s.def.Title, p.Kind, p.SlotID),
		})
		fx.record(Event{SlotID: slotID, UserID: userID, Action: "confirm_conflict", At: now})
		r.promote(fx, s, now)
		return ConfirmResult{}, &domain.GlobalConflictError{OtherSlotID: p.SlotID, Kind: p.Kind}
	}

	duration := offer.Duration
	r.resolveOffer(s)
	res := r.activate(fx, s, userID, duration, now, KindConfirmed)
	return ConfirmResult{Reservation: res}, nil
}

// Reject declines a pending offer and moves on to the next waiter.
func (r *Registry) Reject(slotID, userID, nonce string) error {
	var fx effects
	r.mu.Lock()
	err := r.rejectLocked(&fx, slotID, userID, nonce)
	r.mu.Unlock()
	r.emit(&fx)

	if err == nil && r.metrics != nil {
		r.metrics.RejectTotal.Inc()
	}
	r.logger.Debug().Str("slot", slotID).Str("user", userID).Err(err).Msg("reject")
	return err
}

func (r *Registry) rejectLocked(fx *effects, slotID, userID, nonce string) error {
	s, _, err := r.liveOffer(slotID, userID, nonce)
	if err != nil {
		return err
	}
	now := r.clock.Now()
	r.resolveOffer(s)
	fx.notify(Notification{
		SlotID:  slotID,
		UserID:  userID,
		Kind:    KindRejected,
		Message: fmt.Sprintf("rejected the turn on %s", s.def.Title),
	})
	fx.record(Event{SlotID: slotID, UserID: userID, Action: "rejected", At: now})
	r.promote(fx, s, now)
	return nil
}

// LeaveQueue removes the user's waitlist entry. Unlike Cancel it touches
// nothing else the user might hold.
func (r *Registry) LeaveQueue(slotID, userID string) error {
	var fx effects
	r.mu.Lock()
	err := r.leaveQueueLocked(&fx, slotID, userID)
	r.mu.Unlock()
	r.emit(&fx)
	return err
}

func (r *Registry) leaveQueueLocked(fx *effects, slotID, userID string) error {
	s, ok := r.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if !s.waitlist.remove(userID) {
		return domain.ErrNotHolder
	}
	if r.metrics != nil {
		r.metrics.WaitingUsers.Dec()
	}
	fx.record(Event{SlotID: slotID, UserID: userID, Action: "left_queue", At: r.clock.Now()})
	return nil
}

// Status snapshots one slot.
func (r *Registry) Status(slotID string) (SlotStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return SlotStatus{}, domain.ErrSlotNotFound
	}
	return r.statusLocked(s), nil
}

// Statuses snapshots every slot in configuration order.
func (r *Registry) Statuses() []SlotStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SlotStatus, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.statusLocked(r.slots[id]))
	}
	return out
}

func (r *Registry) statusLocked(s *slotState) SlotStatus {
	now := r.clock.Now()
	st := SlotStatus{
		Slot:     s.def,
		Waitlist: s.waitlist.snapshot(),
	}
	if s.reservation != nil {
		res := *s.reservation
		st.Reservation = &res
	}
	if s.offer != nil {
		st.Offer = &OfferSummary{
			UserID:    s.offer.UserID,
			Duration:  s.offer.Duration,
			Nonce:     s.offer.Nonce,
			Deadline:  s.offer.Deadline,
			Remaining: s.offer.Remaining(now),
		}
	}
	return st
}

// CompactCooldowns drops expired cooldown entries. Purely memory hygiene;
// expired entries already read as absent.
func (r *Registry) CompactCooldowns() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	for _, s := range r.slots {
		s.cooldowns.compact(now)
	}
}

// liveOffer resolves the slot and validates that the offer addressed by the
// nonce is still the live one and belongs to userID. No mutation on failure.
func (r *Registry) liveOffer(slotID, userID, nonce string) (*slotState, *domain.PendingOffer, error) {
	s, ok := r.slots[slotID]
	if !ok {
		return nil, nil, domain.ErrSlotNotFound
	}
	if s.offer == nil || s.offer.Nonce != nonce {
		return nil, nil, domain.ErrStaleOffer
	}
	if s.offer.UserID != userID {
		return nil, nil, domain.ErrNotHolder
	}
	return s, s.offer, nil
}

// resolveOffer destroys the live offer, stopping its timer first.
func (r *Registry) resolveOffer(s *slotState) {
	s.stopOfferTimer()
	s.offer = nil
	if r.metrics != nil {
		r.metrics.PendingOffers.Dec()
	}
}

// activate creates a reservation and arms its expiry timer. Caller ensures
// the slot is free of both reservation and offer.
func (r *Registry) activate(fx *effects, s *slotState, userID string, duration time.Duration, now time.Time, kind NotifyKind) domain.Reservation {
	s.stopReservationTimer()
	res := domain.Reservation{
		SlotID:   s.def.ID,
		UserID:   userID,
		Duration: duration,
		StartAt:  now,
		EndAt:    now.Add(duration),
	}
	s.reservation = &res
	s.resGen++
	gen := s.resGen
	slotID := s.def.ID
	s.resTimer = r.clock.AfterFunc(duration, func() {
		r.onDurationExpire(slotID, gen)
	})
	if r.metrics != nil {
		r.metrics.ActiveReservations.Inc()
	}

	fx.render(s.view(now))
	fx.notify(Notification{
		SlotID:  slotID,
		UserID:  userID,
		Kind:    kind,
		Message: fmt.Sprintf("holds %s for %s, ends at %s", s.def.Title, duration, res.EndAt.Format(time.RFC3339)),
	})
	action := "claimed"
	if kind == KindConfirmed {
		action = "confirmed"
	}
	fx.record(Event{SlotID: slotID, UserID: userID, Action: action, Duration: duration, At: now})
	return res
}

// onDurationExpire fires when a reservation runs out. The generation check
// makes it a no-op against a reservation that was already torn down and
// possibly replaced.
func (r *Registry) onDurationExpire(slotID string, gen uint64) {
	var fx effects
	r.mu.Lock()
	s, ok := r.slots[slotID]
	if !ok || s.reservation == nil || s.resGen != gen {
		r.mu.Unlock()
		return
	}
	finished := *s.reservation
	s.reservation = nil
	s.resTimer = nil
	now := r.clock.Now()
	fx.notify(Notification{
		SlotID:  slotID,
		UserID:  finished.UserID,
		Kind:    KindExpired,
		Message: fmt.Sprintf("time is up on %s", s.def.Title),
	})
	fx.record(Event{SlotID: slotID, UserID: finished.UserID, Action: "expired", Duration: finished.Duration, At: now})
	r.promote(&fx, s, now)
	r.mu.Unlock()
	r.emit(&fx)

	if r.metrics != nil {
		r.metrics.ActiveReservations.Dec()
		r.metrics.ExpiredTotal.Inc()
	}
	r.logger.Info().Str("slot", slotID).Str("user", finished.UserID).Msg("reservation expired")
}

// onConfirmTimeout fires when an offer's deadline passes. Acts only if the
// live offer still carries the same nonce.
func (r *Registry) onConfirmTimeout(slotID, nonce string) {
	var fx effects
	r.mu.Lock()
	s, ok := r.slots[slotID]
	if !ok || s.offer == nil || s.offer.Nonce != nonce {
		r.mu.Unlock()
		return
	}
	lost := s.offer.UserID
	r.resolveOffer(s)
	now := r.clock.Now()
	fx.notify(Notification{
		SlotID:  slotID,
		UserID:  lost,
		Kind:    KindTimedOut,
		Message: fmt.Sprintf("did not confirm the turn on %s in time", s.def.Title),
	})
	fx.record(Event{SlotID: slotID, UserID: lost, Action: "offer_timeout", At: now})
	r.promote(&fx, s, now)
	r.mu.Unlock()
	r.emit(&fx)

	if r.metrics != nil {
		r.metrics.OfferTimeoutsTotal.Inc()
	}
	r.logger.Info().Str("slot", slotID).Str("user", lost).Msg("offer timed out")
}

// promote extends an offer to the next eligible waiter once the slot is free
// of both reservation and offer. Ineligible waiters (cooldown, cross-slot
// conflict) are dropped, not re-enqueued. If nobody is eligible the slot
// goes back to open.
func (r *Registry) promote(fx *effects, s *slotState, now time.Time) {
	if s.reservation != nil || s.offer != nil {
		return
	}
	for {
		next, ok := s.waitlist.popHead()
		if !ok {
			break
		}
		if r.metrics != nil {
			r.metrics.WaitingUsers.Dec()
		}
		if rem, active := s.cooldowns.remaining(next.UserID, now); active {
			fx.notify(Notification{
				SlotID:  s.def.ID,
				UserID:  next.UserID,
				Kind:    KindCooldownSkipped,
				Message: fmt.Sprintf("skipped for %s: cooldown for another %s", s.def.Title, rem.Round(time.Second)),
			})
			if r.metrics != nil {
				r.metrics.PromotionSkips.WithLabelValues("cooldown").Inc()
			}
			continue
		}
		if p := r.findParticipation(next.UserID, s.def.ID); p != nil {
			fx.notify(Notification{
				SlotID:  s.def.ID,
				UserID:  next.UserID,
				Kind:    KindConflictSkipped,
				Message: fmt.Sprintf("skipped for %s: already %s in %s", s.def.Title, p.Kind, p.SlotID),
			})
			if r.metrics != nil {
				r.metrics.PromotionSkips.WithLabelValues("conflict").Inc()
			}
			continue
		}

		nonce := r.newNonce()
		s.offer = &domain.PendingOffer{
			SlotID:   s.def.ID,
			UserID:   next.UserID,
			Duration: next.Duration,
			Nonce:    nonce,
			Deadline: now.Add(s.def.ConfirmWindow),
		}
		slotID := s.def.ID
		s.offerTimer = r.clock.AfterFunc(s.def.ConfirmWindow, func() {
			r.onConfirmTimeout(slotID, nonce)
		})
		if r.metrics != nil {
			r.metrics.PendingOffers.Inc()
			r.metrics.PromotionsTotal.Inc()
		}
		fx.render(s.view(now))
		fx.notify(Notification{
			SlotID:  slotID,
			UserID:  next.UserID,
			Kind:    KindPromoted,
			Message: fmt.Sprintf("your turn on %s for %s, confirm within %s", s.def.Title, next.Duration, s.def.ConfirmWindow),
		})
		fx.record(Event{SlotID: slotID, UserID: next.UserID, Action: "promoted", Duration: next.Duration, At: now})
		return
	}

	fx.render(s.view(now))
	fx.notify(Notification{
		SlotID:  s.def.ID,
		Kind:    KindSlotOpen,
		Message: fmt.Sprintf("%s is free", s.def.Title),
	})
}

// findParticipation scans every slot except the excluded one for the user's
// reservation, offer or waitlist membership. O(total participants); callers
// hold the registry mutex so the snapshot is consistent.
func (r *Registry) findParticipation(userID, excludeSlotID string) *domain.Participation {
	for _, id := range r.order {
		if id == excludeSlotID {
			continue
		}
		if kind, ok := r.slots[id].participation(userID); ok {
			return &domain.Participation{SlotID: id, Kind: kind}
		}
	}
	return nil
}

// confirmResultLabel classifies a confirm outcome for the metrics counter.
// Only a cross-slot conflict counts as conflict; other failures (stale
// nonce aside) land in the error bucket.
func confirmResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrStaleOffer):
		return "stale"
	case errors.Is(err, domain.ErrGlobalConflict):
		return "conflict"
	default:
		return "error"
	}
}
