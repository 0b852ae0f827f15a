// Package history keeps an append-only trail of slot transitions in
// Postgres. The trail is observational: engine state never depends on it,
// and a write failure only costs the row.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, e engine.Event) error {
	const stmt = `
INSERT INTO slot_events (slot_id, user_id, action, duration_seconds, occurred_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, stmt,
		e.SlotID,
		e.UserID,
		e.Action,
		int64(e.Duration/time.Second),
		e.At,
	)
	if err != nil {
		return fmt.Errorf("append slot event: %w", err)
	}
	return nil
}

// RecentBySlot returns the latest events for one slot, newest first.
func (s *Store) RecentBySlot(ctx context.Context, slotID string, limit int) ([]engine.Event, error) {
	const query = `
SELECT slot_id, user_id, action, duration_seconds, occurred_at
FROM slot_events
WHERE slot_id = $1
ORDER BY occurred_at DESC, id DESC
LIMIT $2`

	rows, err := s.pool.Query(ctx, query, slotID, limit)
	if err != nil {
		return nil, fmt.Errorf("query slot events: %w", err)
	}
	defer rows.Close()

	var out []engine.Event
	for rows.Next() {
		var e engine.Event
		var seconds int64
		if err := rows.Scan(&e.SlotID, &e.UserID, &e.Action, &seconds, &e.At); err != nil {
			return nil, fmt.Errorf("scan slot event: %w", err)
		}
		e.Duration = time.Duration(seconds) * time.Second
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot events: %w", err)
	}
	return out, nil
}
