package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/domain"
)

// SlotDefaults fills in slot fields the definition file leaves out.
type SlotDefaults struct {
	QueueCapacity int
	ConfirmWindow time.Duration
	Cooldown      time.Duration
}

// slotFile is the on-disk shape: optional named profiles providing duration
// menus, and the slot list itself. A slot may reference a profile instead of
// carrying its own minutes.
type slotFile struct {
	Profiles map[string]slotProfile `json:"profiles"`
	Slots    []slotDef              `json:"slots"`
}

type slotProfile struct {
	Minutes []int `json:"minutes"`
}

type slotDef struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Minutes          []int  `json:"minutes"`
	Profile          string `json:"profile"`
	QueueCapacity    *int   `json:"queue_capacity"`
	ConfirmWindowSec *int   `json:"confirm_window_sec"`
	CooldownSec      *int   `json:"cooldown_sec"`
}

// LoadSlots resolves slot definitions: an explicit file wins over inline
// JSON, and with neither set the built-in defaults apply. Any validation
// failure is fatal; no slot state may exist on top of a bad definition.
func LoadSlots(cfg *Config) ([]domain.Slot, error) {
	raw, err := rawSlotJSON(cfg)
	if err != nil {
		return nil, err
	}
	var file slotFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse slot config: %w", err)
	}
	return buildSlots(file, cfg.SlotDefaults())
}

func rawSlotJSON(cfg *Config) ([]byte, error) {
	if cfg.SlotsFile != "" {
		raw, err := os.ReadFile(cfg.SlotsFile)
		if err != nil {
			return nil, fmt.Errorf("read slot config %s: %w", cfg.SlotsFile, err)
		}
		return raw, nil
	}
	if cfg.SlotsJSON != "" {
		return []byte(cfg.SlotsJSON), nil
	}
	return []byte(defaultSlotJSON), nil
}

// defaultSlotJSON mirrors the minimal setup the service started with.
const defaultSlotJSON = `{
  "profiles": {"pico": {"minutes": [30, 60, 90]}},
  "slots": [
    {"title": "PICO 4", "profile": "pico"},
    {"title": "PICO 5", "profile": "pico"},
    {"title": "PICO 6", "profile": "pico"},
    {"title": "PICO 7", "profile": "pico"}
  ]
}`

func buildSlots(file slotFile, defaults SlotDefaults) ([]domain.Slot, error) {
	if len(file.Slots) == 0 {
		return nil, fmt.Errorf("slot config defines no slots")
	}

	slots := make([]domain.Slot, 0, len(file.Slots))
	seen := make(map[string]bool, len(file.Slots))
	for i, def := range file.Slots {
		title := strings.TrimSpace(def.Title)
		if title == "" {
			return nil, fmt.Errorf("slot %d: title is required", i)
		}
		id := def.ID
		if id == "" {
			id = slugify(title)
		}
		if seen[id] {
			return nil, fmt.Errorf("slot %d: duplicate id %q", i, id)
		}
		seen[id] = true

		minutes := def.Minutes
		if len(minutes) == 0 && def.Profile != "" {
			profile, ok := file.Profiles[def.Profile]
			if !ok {
				return nil, fmt.Errorf("slot %q: unknown profile %q", id, def.Profile)
			}
			minutes = profile.Minutes
		}
		if len(minutes) < 1 || len(minutes) > 4 {
			return nil, fmt.Errorf("slot %q: needs 1 to 4 durations, got %d", id, len(minutes))
		}
		durations := make([]time.Duration, 0, len(minutes))
		seenMinutes := make(map[int]bool, len(minutes))
		for _, m := range minutes {
			if m <= 0 {
				return nil, fmt.Errorf("slot %q: durations must be positive, got %d", id, m)
			}
			if seenMinutes[m] {
				return nil, fmt.Errorf("slot %q: duplicate duration %d", id, m)
			}
			seenMinutes[m] = true
			durations = append(durations, time.Duration(m)*time.Minute)
		}

		capacity := defaults.QueueCapacity
		if def.QueueCapacity != nil {
			capacity = *def.QueueCapacity
		}
		if capacity < 0 {
			return nil, fmt.Errorf("slot %q: queue capacity must be >= 0, got %d", id, capacity)
		}
		window := defaults.ConfirmWindow
		if def.ConfirmWindowSec != nil {
			window = time.Duration(*def.ConfirmWindowSec) * time.Second
		}
		if window < 5*time.Second {
			return nil, fmt.Errorf("slot %q: confirm window must be >= 5s, got %s", id, window)
		}
		cooldown := defaults.Cooldown
		if def.CooldownSec != nil {
			cooldown = time.Duration(*def.CooldownSec) * time.Second
		}
		if cooldown < 0 {
			return nil, fmt.Errorf("slot %q: cooldown must be >= 0, got %s", id, cooldown)
		}

		slots = append(slots, domain.Slot{
			ID:            id,
			Title:         title,
			Durations:     durations,
			QueueCapacity: capacity,
			ConfirmWindow: window,
			Cooldown:      cooldown,
		})
	}
	return slots, nil
}

func slugify(title string) string {
	out := strings.ToLower(strings.TrimSpace(title))
	out = strings.Join(strings.Fields(out), "-")
	return out
}
