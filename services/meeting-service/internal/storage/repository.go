package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("no user found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db querier
}

func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository whose statements run in tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

type Duration struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Seconds int    `json:"duration"`
}

// MeetingWindows is what a public scheduling link shows before a slot is
// picked. Position and Company are only known for hosts with an employee
// record.
type MeetingWindows struct {
	FullName        string     `json:"full_name"`
	ProfilePic      string     `json:"profile_pic"`
	BannerImage     string     `json:"banner_image"`
	Position        *string    `json:"position"`
	Company         *string    `json:"company"`
	MeetingProvider string     `json:"meeting_provider"`
	Durations       []Duration `json:"durations"`
}

// GetMeetingWindows resolves an enabled availability by slug, then its host
// and the durations it offers in configured order.
func (r *Repository) GetMeetingWindows(ctx context.Context, slug string) (MeetingWindows, error) {
	var (
		availabilityID string
		mw             MeetingWindows
	)
	err := r.db.QueryRow(ctx, `
		SELECT a.id, u.full_name, coalesce(u.user_image, ''), coalesce(u.banner_image, ''),
			coalesce(a.meeting_provider, ''), e.designation, e.company
		FROM user_appointment_availability a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN employees e ON e.user_id = u.id
		WHERE a.slug = $1 AND a.enable_scheduling
		LIMIT 1
	`, slug).Scan(&availabilityID, &mw.FullName, &mw.ProfilePic, &mw.BannerImage,
		&mw.MeetingProvider, &mw.Position, &mw.Company)
	if errors.Is(err, pgx.ErrNoRows) {
		return MeetingWindows{}, ErrNotFound
	}
	if err != nil {
		return MeetingWindows{}, fmt.Errorf("load availability: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, title, duration_seconds
		FROM appointment_slot_durations
		WHERE availability_id = $1
		ORDER BY idx, id
	`, availabilityID)
	if err != nil {
		return MeetingWindows{}, fmt.Errorf("load durations: %w", err)
	}
	defer rows.Close()

	mw.Durations = []Duration{}
	for rows.Next() {
		var d Duration
		if err := rows.Scan(&d.ID, &d.Label, &d.Seconds); err != nil {
			return MeetingWindows{}, fmt.Errorf("scan duration: %w", err)
		}
		mw.Durations = append(mw.Durations, d)
	}
	if err := rows.Err(); err != nil {
		return MeetingWindows{}, fmt.Errorf("load durations: %w", err)
	}
	return mw, nil
}
