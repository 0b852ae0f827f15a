package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("fires due timers in deadline order", func(t *testing.T) {
		clk := NewManual(start)
		var fired []string
		clk.AfterFunc(2*time.Minute, func() { fired = append(fired, "b") })
		clk.AfterFunc(1*time.Minute, func() { fired = append(fired, "a") })
		clk.AfterFunc(10*time.Minute, func() { fired = append(fired, "c") })

		clk.Advance(5 * time.Minute)

		if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
			t.Fatalf("expected [a b], got %v", fired)
		}
		if got := clk.Now(); !got.Equal(start.Add(5 * time.Minute)) {
			t.Fatalf("expected clock at +5m, got %v", got)
		}
	})

	t.Run("stopped timer does not fire", func(t *testing.T) {
		clk := NewManual(start)
		fired := false
		tm := clk.AfterFunc(time.Minute, func() { fired = true })
		if !tm.Stop() {
			t.Fatalf("expected Stop to report true before firing")
		}
		clk.Advance(2 * time.Minute)
		if fired {
			t.Fatalf("stopped timer fired")
		}
		if tm.Stop() {
			t.Fatalf("second Stop should report false")
		}
	})

	t.Run("callback sees clock at its deadline", func(t *testing.T) {
		clk := NewManual(start)
		var at time.Time
		clk.AfterFunc(3*time.Minute, func() { at = clk.Now() })
		clk.Advance(10 * time.Minute)
		if !at.Equal(start.Add(3 * time.Minute)) {
			t.Fatalf("expected callback at +3m, got %v", at)
		}
	})

	t.Run("cascading timer armed by callback fires in same advance", func(t *testing.T) {
		clk := NewManual(start)
		var fired []string
		clk.AfterFunc(time.Minute, func() {
			fired = append(fired, "first")
			clk.AfterFunc(time.Minute, func() { fired = append(fired, "second") })
		})
		clk.Advance(5 * time.Minute)
		if len(fired) != 2 || fired[1] != "second" {
			t.Fatalf("expected cascading fire, got %v", fired)
		}
	})
}
