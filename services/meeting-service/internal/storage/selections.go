package storage

import (
	"context"
	"fmt"
	"time"
)

type Selection struct {
	Slug       string
	DurationID string
	Source     string
	SelectedAt time.Time
}

type SelectionStat struct {
	DurationID     string    `json:"duration_id"`
	Source         string    `json:"source"`
	Selections     int64     `json:"selections"`
	LastSelectedAt time.Time `json:"last_selected_at"`
}

// RecordSelection bumps the per-duration counter for a scheduling link.
func (r *Repository) RecordSelection(ctx context.Context, s Selection) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO duration_selection_stats (slug, duration_id, source, selections, last_selected_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (slug, duration_id, source) DO UPDATE
		SET selections = duration_selection_stats.selections + 1,
			last_selected_at = GREATEST(duration_selection_stats.last_selected_at, EXCLUDED.last_selected_at)
	`, s.Slug, s.DurationID, s.Source, s.SelectedAt)
	if err != nil {
		return fmt.Errorf("record selection: %w", err)
	}
	return nil
}

func (r *Repository) SelectionStats(ctx context.Context, slug string) ([]SelectionStat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT duration_id, source, selections, last_selected_at
		FROM duration_selection_stats
		WHERE slug = $1
		ORDER BY selections DESC, duration_id
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("load selection stats: %w", err)
	}
	defer rows.Close()

	stats := []SelectionStat{}
	for rows.Next() {
		var s SelectionStat
		if err := rows.Scan(&s.DurationID, &s.Source, &s.Selections, &s.LastSelectedAt); err != nil {
			return nil, fmt.Errorf("scan selection stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
