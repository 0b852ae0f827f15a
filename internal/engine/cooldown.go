package engine

import "time"

// cooldownLedger maps userID to penalty expiry for one slot. An entry whose
// expiry has passed is treated as absent; compaction is memory hygiene only.
type cooldownLedger struct {
	expiries map[string]time.Time
}

func newCooldownLedger() cooldownLedger {
	return cooldownLedger{expiries: make(map[string]time.Time)}
}

func (l cooldownLedger) set(userID string, until time.Time) {
	l.expiries[userID] = until
}

// remaining reports whether the user is under an active cooldown and, if so,
// how long is left.
func (l cooldownLedger) remaining(userID string, now time.Time) (time.Duration, bool) {
	until, ok := l.expiries[userID]
	if !ok || !until.After(now) {
		return 0, false
	}
	return until.Sub(now), true
}

func (l cooldownLedger) compact(now time.Time) {
	for user, until := range l.expiries {
		if !until.After(now) {
			delete(l.expiries, user)
		}
	}
}
