package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	db beginner
}

func NewRepository(db beginner) *Repository {
	return &Repository{db: db}
}

// Process records the event and runs fn in the same transaction. It reports
// false without calling fn when the event was already seen. When fn fails the
// inbox row is rolled back, so a redelivery is handled again.
func (r *Repository) Process(ctx context.Context, eventID, eventType string, fn func(ctx context.Context, tx pgx.Tx) error) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin inbox tx: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("record inbox event: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit inbox tx: %w", err)
	}
	return true, nil
}
