package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestRecordSelection(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO duration_selection_stats").
		WithArgs("jane", "d-30", "fast_path", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewRepository(mock).RecordSelection(context.Background(), Selection{
		Slug: "jane", DurationID: "d-30", Source: "fast_path", SelectedAt: at,
	})
	if err != nil {
		t.Fatalf("record selection: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSelectionStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM duration_selection_stats").
		WithArgs("jane").
		WillReturnRows(pgxmock.NewRows([]string{"duration_id", "source", "selections", "last_selected_at"}).
			AddRow("d-30", "manual", int64(4), at).
			AddRow("d-60", "fast_path", int64(1), at))

	stats, err := NewRepository(mock).SelectionStats(context.Background(), "jane")
	if err != nil {
		t.Fatalf("selection stats: %v", err)
	}
	if len(stats) != 2 || stats[0].Selections != 4 || stats[1].Source != "fast_path" {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestRecordSelectionRunsInTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	boom := errors.New("deadlock detected")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO duration_selection_stats").
		WithArgs("jane", "d-30", "manual", at).
		WillReturnError(boom)
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = NewRepository(mock).WithTx(tx).RecordSelection(ctx, Selection{
		Slug: "jane", DurationID: "d-30", Source: "manual", SelectedAt: at,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
