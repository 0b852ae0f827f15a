package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" || cfg.QueueCapacity != 2 || cfg.ConfirmWindowSec != 45 {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("confirm window below floor is fatal", func(t *testing.T) {
		t.Setenv("CONFIRM_WINDOW_SEC", "3")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for confirm window < 5s")
		}
	})

	t.Run("negative capacity is fatal", func(t *testing.T) {
		t.Setenv("QUEUE_CAPACITY", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative capacity")
		}
	})
}

func TestLoadSlots(t *testing.T) {
	base := func() *Config {
		return &Config{QueueCapacity: 2, ConfirmWindowSec: 45, CooldownSec: 120}
	}

	t.Run("built-in defaults", func(t *testing.T) {
		slots, err := LoadSlots(base())
		if err != nil {
			t.Fatalf("load slots: %v", err)
		}
		if len(slots) != 4 {
			t.Fatalf("expected 4 default slots, got %d", len(slots))
		}
		s := slots[0]
		if s.ID != "pico-4" || s.Title != "PICO 4" {
			t.Fatalf("unexpected first slot: %+v", s)
		}
		if len(s.Durations) != 3 || s.Durations[0] != 30*time.Minute {
			t.Fatalf("unexpected durations: %v", s.Durations)
		}
		if s.QueueCapacity != 2 || s.ConfirmWindow != 45*time.Second || s.Cooldown != 2*time.Minute {
			t.Fatalf("defaults not applied: %+v", s)
		}
	})

	t.Run("inline json with overrides", func(t *testing.T) {
		cfg := base()
		cfg.SlotsJSON = `{"slots": [
			{"id": "vr-1", "title": "VR Station", "minutes": [15, 30], "queue_capacity": 5, "confirm_window_sec": 60, "cooldown_sec": 0}
		]}`
		slots, err := LoadSlots(cfg)
		if err != nil {
			t.Fatalf("load slots: %v", err)
		}
		s := slots[0]
		if s.ID != "vr-1" || s.QueueCapacity != 5 || s.ConfirmWindow != time.Minute || s.Cooldown != 0 {
			t.Fatalf("overrides not applied: %+v", s)
		}
	})

	t.Run("file wins over inline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "slots.json")
		if err := os.WriteFile(path, []byte(`{"slots": [{"title": "From File", "minutes": [10]}]}`), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
		cfg := base()
		cfg.SlotsFile = path
		cfg.SlotsJSON = `{"slots": [{"title": "Inline", "minutes": [10]}]}`
		slots, err := LoadSlots(cfg)
		if err != nil {
			t.Fatalf("load slots: %v", err)
		}
		if len(slots) != 1 || slots[0].Title != "From File" {
			t.Fatalf("expected the file definition, got %+v", slots)
		}
	})

	t.Run("rejects bad definitions", func(t *testing.T) {
		cases := map[string]string{
			"no slots":          `{"slots": []}`,
			"empty title":       `{"slots": [{"title": "  ", "minutes": [10]}]}`,
			"no durations":      `{"slots": [{"title": "A"}]}`,
			"too many":          `{"slots": [{"title": "A", "minutes": [1,2,3,4,5]}]}`,
			"negative duration": `{"slots": [{"title": "A", "minutes": [-5]}]}`,
			"duplicate minutes": `{"slots": [{"title": "A", "minutes": [10, 10]}]}`,
			"unknown profile":   `{"slots": [{"title": "A", "profile": "nope"}]}`,
			"duplicate id":      `{"slots": [{"title": "A", "minutes": [5]}, {"title": "a", "minutes": [5]}]}`,
			"short window":      `{"slots": [{"title": "A", "minutes": [5], "confirm_window_sec": 2}]}`,
			"bad json":          `{"slots": `,
		}
		for name, raw := range cases {
			t.Run(name, func(t *testing.T) {
				cfg := base()
				cfg.SlotsJSON = raw
				if _, err := LoadSlots(cfg); err == nil {
					t.Fatalf("expected error for %s", name)
				}
			})
		}
	})

	t.Run("slug ids from titles", func(t *testing.T) {
		cfg := base()
		cfg.SlotsJSON = `{"slots": [{"title": "  Sala Grande  ", "minutes": [30]}]}`
		slots, err := LoadSlots(cfg)
		if err != nil {
			t.Fatalf("load slots: %v", err)
		}
		if slots[0].ID != "sala-grande" {
			t.Fatalf("expected slug id, got %q", slots[0].ID)
		}
	})
}
