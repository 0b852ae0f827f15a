package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics covers the reservation engine's counters and gauges.
type Metrics struct {
	ClaimTotal   *prometheus.CounterVec // result=active|queued|rejected
	CancelTotal  *prometheus.CounterVec // released=active|pending|queue
	ConfirmTotal *prometheus.CounterVec // result=success|stale|conflict|error
	RejectTotal  prometheus.Counter

	PromotionsTotal    prometheus.Counter
	PromotionSkips     *prometheus.CounterVec // reason=cooldown|conflict
	OfferTimeoutsTotal prometheus.Counter
	ExpiredTotal       prometheus.Counter

	ActiveReservations prometheus.Gauge
	WaitingUsers       prometheus.Gauge
	PendingOffers      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		ClaimTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slot_claim_total",
				Help: "Total claim attempts by result",
			},
			[]string{"result"},
		),
		CancelTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slot_cancel_total",
				Help: "Total successful cancellations by what was released",
			},
			[]string{"released"},
		),
		ConfirmTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slot_confirm_total",
				Help: "Total confirm attempts by result",
			},
			[]string{"result"},
		),
		RejectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_reject_total",
			Help: "Total successfully rejected offers",
		}),
		PromotionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_promotions_total",
			Help: "Total offers extended to waitlisted users",
		}),
		PromotionSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slot_promotion_skips_total",
				Help: "Waitlisted users skipped during promotion by reason",
			},
			[]string{"reason"},
		),
		OfferTimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_offer_timeouts_total",
			Help: "Total offers that expired unconfirmed",
		}),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_reservation_expired_total",
			Help: "Total reservations that ran out their duration",
		}),
		ActiveReservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slot_active_reservations",
			Help: "Number of currently active reservations",
		}),
		WaitingUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slot_waiting_users",
			Help: "Number of users currently waitlisted across all slots",
		}),
		PendingOffers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slot_pending_offers",
			Help: "Number of outstanding confirmation offers",
		}),
	}

	prometheus.MustRegister(
		m.ClaimTotal,
		m.CancelTotal,
		m.ConfirmTotal,
		m.RejectTotal,
		m.PromotionsTotal,
		m.PromotionSkips,
		m.OfferTimeoutsTotal,
		m.ExpiredTotal,
		m.ActiveReservations,
		m.WaitingUsers,
		m.PendingOffers,
	)

	return m
}
