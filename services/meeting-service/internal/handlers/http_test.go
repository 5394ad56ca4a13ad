package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/storage"
)

type fakeRepo struct {
	windows storage.MeetingWindows
	stats   []storage.SelectionStat
	err     error
	slug    string
}

func (f *fakeRepo) SelectionStats(_ context.Context, slug string) ([]storage.SelectionStat, error) {
	f.slug = slug
	return f.stats, f.err
}

func (f *fakeRepo) GetMeetingWindows(_ context.Context, slug string) (storage.MeetingWindows, error) {
	f.slug = slug
	return f.windows, f.err
}

func serve(t *testing.T, repo *fakeRepo, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	New(repo, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, target, nil))
	return rw
}

func TestGetMeetingWindowsEnvelope(t *testing.T) {
	repo := &fakeRepo{windows: storage.MeetingWindows{
		FullName:  "Jane Host",
		Durations: []storage.Duration{{ID: "d-30", Label: "Intro call", Seconds: 1800}},
	}}
	rw := serve(t, repo, MeetingWindowsPath+"?slug=jane")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if repo.slug != "jane" {
		t.Fatalf("expected slug to reach the repository, got %q", repo.slug)
	}

	var body struct {
		Message struct {
			FullName  string  `json:"full_name"`
			Position  *string `json:"position"`
			Durations []struct {
				ID       string `json:"id"`
				Duration int    `json:"duration"`
			} `json:"durations"`
		} `json:"message"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message.FullName != "Jane Host" || body.Message.Position != nil {
		t.Fatalf("unexpected message: %#v", body.Message)
	}
	if len(body.Message.Durations) != 1 || body.Message.Durations[0].Duration != 1800 {
		t.Fatalf("unexpected durations: %#v", body.Message.Durations)
	}
}

func TestGetMeetingWindowsErrors(t *testing.T) {
	cases := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"missing slug", MeetingWindowsPath, nil, http.StatusBadRequest},
		{"unknown slug", MeetingWindowsPath + "?slug=ghost", storage.ErrNotFound, http.StatusNotFound},
		{"database down", MeetingWindowsPath + "?slug=jane", errors.New("conn refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rw := serve(t, &fakeRepo{err: tc.err}, tc.target)
			if rw.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rw.Code)
			}
			var body map[string]map[string]string
			if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["message"]["error"] == "" {
				t.Fatalf("expected an error message, got %s", rw.Body.String())
			}
		})
	}
}

func TestGetSelectionStats(t *testing.T) {
	repo := &fakeRepo{stats: []storage.SelectionStat{{DurationID: "d-30", Source: "manual", Selections: 3}}}
	rw := serve(t, repo, "/api/v1/links/jane/selection-stats")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if repo.slug != "jane" {
		t.Fatalf("expected slug from the path, got %q", repo.slug)
	}
	var body struct {
		Slug  string                  `json:"slug"`
		Stats []storage.SelectionStat `json:"stats"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Slug != "jane" || len(body.Stats) != 1 || body.Stats[0].Selections != 3 {
		t.Fatalf("unexpected body: %#v", body)
	}
}
