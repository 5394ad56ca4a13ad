package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptpage/libs/httpx"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/query"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/schedctx"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/view"
)

// TimezoneHeader carries the visitor's IANA timezone as computed by the browser.
const TimezoneHeader = "X-Visitor-Timezone"

type Config struct {
	DefaultTimezone string
	// ViewWait bounds how long a page load waits for the meeting definition.
	ViewWait time.Duration
	Logger   *slog.Logger
}

type Handler struct {
	views     *view.Reconciler
	store     schedctx.Store
	defaultTZ string
	viewWait  time.Duration
	logger    *slog.Logger
}

func New(views *view.Reconciler, store schedctx.Store, cfg Config) *Handler {
	tz := strings.TrimSpace(cfg.DefaultTimezone)
	if _, err := time.LoadLocation(tz); tz == "" || err != nil {
		tz = "UTC"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		views:     views,
		store:     store,
		defaultTZ: tz,
		viewWait:  cfg.ViewWait,
		logger:    logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /appointment/{slug}", h.View)
	mux.HandleFunc("POST /appointment/{slug}/selection", h.Select)
	mux.HandleFunc("GET /appointment/{slug}/context", h.Context)
}

// View is one observation of the entry view. It answers with the JSON view
// document, or 303 when the view navigates (fast path rewrite or failure).
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	sessionID := httpx.SessionIDFromContext(r.Context())
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	out, err := h.views.Observe(r.Context(), view.Request{
		SessionID: sessionID,
		Slug:      r.PathValue("slug"),
		Path:      r.URL.EscapedPath(),
		Params:    query.Read(r.URL.Query()),
		Timezone:  h.visitorTimezone(r),
		Wait:      h.viewWait,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if out.Location != "" {
		http.Redirect(w, r, out.Location, http.StatusSeeOther)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out.View)
}

// Select handles a click on a duration card. Accepts {"type": "..."} or a
// form field named type.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sessionID := httpx.SessionIDFromContext(r.Context())
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	durationType, err := selectedType(r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if durationType == "" {
		http.Error(w, "missing type", http.StatusBadRequest)
		return
	}

	slug := r.PathValue("slug")
	out, err := h.views.Select(r.Context(), view.SelectRequest{
		SessionID: sessionID,
		Slug:      slug,
		Path:      strings.TrimSuffix(r.URL.EscapedPath(), "/selection"),
		Type:      durationType,
		Wait:      h.viewWait,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, out.Location, http.StatusSeeOther)
}

// Context returns the visitor's shared scheduling context for the booking
// and profile views.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	sessionID := httpx.SessionIDFromContext(r.Context())
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	st, err := schedctx.New(h.store, sessionID).Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if st.MeetingID != r.PathValue("slug") {
		http.Error(w, "no scheduling context for this link", http.StatusNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) visitorTimezone(r *http.Request) string {
	tz := strings.TrimSpace(r.Header.Get(TimezoneHeader))
	if tz == "" {
		return h.defaultTZ
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return h.defaultTZ
	}
	return tz
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, view.ErrNotReady):
		http.Error(w, "meeting definition not ready", http.StatusConflict)
	case errors.Is(err, view.ErrUnknownOption):
		http.Error(w, "unknown duration type", http.StatusNotFound)
	case errors.Is(err, meetings.ErrSlugRequired), errors.Is(err, schedctx.ErrNoSession):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("entry view request failed", "err", err, "path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func selectedType(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req struct {
			Type string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return strings.TrimSpace(req.Type), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.PostFormValue(query.ParamType)), nil
}
