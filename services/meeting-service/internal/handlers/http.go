package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/apptpage/libs/httpx"
	"github.com/md-rashed-zaman/apptpage/services/meeting-service/internal/storage"
)

// MeetingWindowsPath is the method path the page service calls.
const MeetingWindowsPath = "/api/method/frappe_appointment.api.personal_meet.get_meeting_windows"

type repository interface {
	GetMeetingWindows(ctx context.Context, slug string) (storage.MeetingWindows, error)
	SelectionStats(ctx context.Context, slug string) ([]storage.SelectionStat, error)
}

type Handler struct {
	repo   repository
	logger *slog.Logger
}

func New(repo repository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+MeetingWindowsPath, h.GetMeetingWindows)
	mux.HandleFunc("GET /api/v1/links/{slug}/selection-stats", h.GetSelectionStats)
}

// GetMeetingWindows answers in the {"message": ...} envelope the page
// service expects, errors included.
func (h *Handler) GetMeetingWindows(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		writeMessage(w, http.StatusBadRequest, map[string]string{"error": "slug is required"})
		return
	}

	mw, err := h.repo.GetMeetingWindows(r.Context(), slug)
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, map[string]string{"error": "No user found"})
		return
	}
	if err != nil {
		h.logger.Error("load meeting windows failed", "err", err, "slug", slug,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		writeMessage(w, http.StatusInternalServerError, map[string]string{"error": "failed to load meeting windows"})
		return
	}
	writeMessage(w, http.StatusOK, mw)
}

func writeMessage(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, map[string]any{"message": v})
}

// GetSelectionStats lists how often each duration of a link was picked.
func (h *Handler) GetSelectionStats(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	stats, err := h.repo.SelectionStats(r.Context(), slug)
	if err != nil {
		h.logger.Error("load selection stats failed", "err", err, "slug", slug)
		http.Error(w, "failed to load selection stats", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"slug": slug, "stats": stats})
}
