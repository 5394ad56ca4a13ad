package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestGetMeetingWindows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	position := "Engineer"
	mock.ExpectQuery("SELECT (.+) FROM user_appointment_availability").
		WithArgs("jane").
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "user_image", "banner_image", "meeting_provider", "designation", "company"}).
			AddRow("avail-1", "Jane Host", "/files/jane.png", "", "Google Meet", &position, nil))
	mock.ExpectQuery("SELECT (.+) FROM appointment_slot_durations").
		WithArgs("avail-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "duration_seconds"}).
			AddRow("d-30", "Intro call", 1800).
			AddRow("d-60", "Deep dive", 3600))

	mw, err := NewRepository(mock).GetMeetingWindows(context.Background(), "jane")
	if err != nil {
		t.Fatalf("get meeting windows: %v", err)
	}
	if mw.FullName != "Jane Host" || mw.MeetingProvider != "Google Meet" {
		t.Fatalf("unexpected host: %#v", mw)
	}
	if mw.Position == nil || *mw.Position != "Engineer" || mw.Company != nil {
		t.Fatalf("unexpected employee fields: position=%v company=%v", mw.Position, mw.Company)
	}
	if len(mw.Durations) != 2 || mw.Durations[0].ID != "d-30" || mw.Durations[1].Seconds != 3600 {
		t.Fatalf("unexpected durations: %#v", mw.Durations)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMeetingWindowsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM user_appointment_availability").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewRepository(mock).GetMeetingWindows(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMeetingWindowsNoDurations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM user_appointment_availability").
		WithArgs("jane").
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "user_image", "banner_image", "meeting_provider", "designation", "company"}).
			AddRow("avail-1", "Jane Host", "", "", "", nil, nil))
	mock.ExpectQuery("SELECT (.+) FROM appointment_slot_durations").
		WithArgs("avail-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "duration_seconds"}))

	mw, err := NewRepository(mock).GetMeetingWindows(context.Background(), "jane")
	if err != nil {
		t.Fatalf("get meeting windows: %v", err)
	}
	if mw.Durations == nil || len(mw.Durations) != 0 {
		t.Fatalf("expected an empty, non-nil duration list, got %#v", mw.Durations)
	}
}
