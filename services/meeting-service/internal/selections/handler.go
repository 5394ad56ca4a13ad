// Package selections turns duration selection events from the page service
// into per-link statistics.
package selections

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const Topic = "appointment.duration.selected.v1"

// Recorder writes selection statistics.
type Recorder interface {
	RecordSelection(ctx context.Context, s storage.Selection) error
}

type payload struct {
	Slug       string    `json:"slug"`
	DurationID string    `json:"duration_id"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewHandler returns a consumer handler. bind scopes the recorder to the
// inbox transaction. Malformed events are logged and dropped; storage errors
// are returned so the inbox row rolls back.
func NewHandler(bind func(tx pgx.Tx) Recorder, logger *slog.Logger) func(ctx context.Context, tx pgx.Tx, msg kafka.Message) error {
	return func(ctx context.Context, tx pgx.Tx, msg kafka.Message) error {
		var p payload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid selection payload", "err", err)
			return nil
		}
		if p.Slug == "" || p.DurationID == "" || p.Source == "" {
			logger.Error("missing selection fields", "slug", p.Slug, "duration_id", p.DurationID)
			return nil
		}
		if p.OccurredAt.IsZero() {
			p.OccurredAt = msg.Time
		}

		if err := bind(tx).RecordSelection(ctx, storage.Selection{
			Slug:       p.Slug,
			DurationID: p.DurationID,
			Source:     p.Source,
			SelectedAt: p.OccurredAt.UTC(),
		}); err != nil {
			return err
		}
		logger.Info("duration selection recorded", "slug", p.Slug, "duration_id", p.DurationID, "source", p.Source)
		return nil
	}
}
