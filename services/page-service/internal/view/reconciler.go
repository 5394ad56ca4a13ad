package view

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/events"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/metrics"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/mount"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/query"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/schedctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotReady      = errors.New("view: meeting definition has not resolved")
	ErrUnknownOption = errors.New("view: unknown duration option")
)

type Config struct {
	Registry        *mount.Registry
	Store           schedctx.Store
	FastPathCallers []string
	RootPath        string
	Publisher       events.Publisher
	Metrics         *metrics.PageMetrics
	Logger          *slog.Logger
}

// Reconciler is the only writer of the shared scheduling context.
type Reconciler struct {
	registry  *mount.Registry
	store     schedctx.Store
	callers   FastPathCallers
	rootPath  string
	publisher events.Publisher
	metrics   *metrics.PageMetrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewReconciler(cfg Config) *Reconciler {
	callers := cfg.FastPathCallers
	if callers == nil {
		callers = DefaultFastPathCallers
	}
	rootPath := strings.TrimSpace(cfg.RootPath)
	if rootPath == "" {
		rootPath = "/"
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		registry:  cfg.Registry,
		store:     cfg.Store,
		callers:   NewFastPathCallers(callers...),
		rootPath:  rootPath,
		publisher: publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Request is one observation of the entry view.
type Request struct {
	SessionID string
	Slug      string
	// Path is the request path without its query; rewrites are built on it.
	Path     string
	Params   query.Params
	Timezone string
	// Wait bounds how long Observe waits for an in-flight fetch to settle.
	Wait time.Duration
}

// Outcome carries either a view to render or a Location to navigate to.
type Outcome struct {
	State    State
	Location string
	View     *Document
}

// Observe evaluates the entry view for the visitor's current URL. On the
// first successful observation it writes the host profile and then the
// duration options into the shared context. A fast-path caller gets the
// first duration written and a rewritten URL. A failed fetch ends the mount
// and points at the root path.
func (r *Reconciler) Observe(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := otel.Tracer("page-service/view").Start(ctx, "view.Observe",
		trace.WithAttributes(attribute.String("appointment.slug", req.Slug)))
	defer span.End()

	if req.SessionID == "" {
		return Outcome{}, schedctx.ErrNoSession
	}
	if strings.TrimSpace(req.Slug) == "" {
		return Outcome{}, meetings.ErrSlugRequired
	}

	// A mount may end between Acquire and Update; the second Acquire remounts.
	for attempt := 0; attempt < 2; attempt++ {
		m, created := r.registry.Acquire(req.SessionID, req.Slug)
		if created {
			r.logger.Info("entry view mounted", "session_id", req.SessionID, "slug", req.Slug)
		}
		if req.Wait > 0 {
			waitCtx, cancel := context.WithTimeout(ctx, req.Wait)
			m.Resource().Wait(waitCtx)
			cancel()
		}

		out, err := r.observe(ctx, m, req)
		if errors.Is(err, mount.ErrClosed) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return Outcome{}, err
		}
		span.SetAttributes(attribute.String("view.state", string(out.State)))
		r.metrics.ObserveState(string(out.State))
		return out, nil
	}
	return Outcome{}, mount.ErrClosed
}

func (r *Reconciler) observe(ctx context.Context, m *mount.Mount, req Request) (Outcome, error) {
	sc := schedctx.New(r.store, req.SessionID)
	var out Outcome

	err := m.Update(r.now(), func(l *mount.Local, res meetings.Result) error {
		l.Absorb(req.Params)

		if !l.Entered {
			if err := sc.SetMeetingID(ctx, req.Slug); err != nil {
				return err
			}
			if err := sc.SetTimezone(ctx, req.Timezone); err != nil {
				return err
			}
			l.Entered = true
		}

		if res.Status == meetings.StatusSuccess && !l.ContextApplied {
			if err := sc.SetUserInfo(ctx, ProjectUserInfo(res.Definition)); err != nil {
				return err
			}
			if err := sc.SetDurationOptions(ctx, res.Definition.DurationOptions); err != nil {
				return err
			}
			l.ContextApplied = true
		}

		d := Decide(req.Params.Type, l.Integration.CallerType, res, r.callers)
		switch d.State {
		case StateFailed:
			l.Done = true
			r.logger.Warn("meeting definition fetch failed, leaving entry view",
				"session_id", req.SessionID, "slug", req.Slug, "err", res.Err)
			out = Outcome{State: StateFailed, Location: r.rootPath}
			return nil
		case StateFastPath:
			if err := sc.SetDuration(ctx, d.AutoSelect.Minutes()); err != nil {
				return err
			}
			out = Outcome{State: StateFastPath, Location: query.Rewrite(req.Path, d.AutoSelect.ID)}
			r.selected(ctx, req.SessionID, req.Slug, d.AutoSelect, l.Integration, events.SourceFastPath)
			return nil
		}

		snap, err := sc.Snapshot(ctx)
		if err != nil {
			return err
		}
		if d.State == StateBooking {
			// A shared link or another slug's pick can reach booking with a
			// stale or missing duration.
			if option, ok := res.Definition.Option(req.Params.Type); ok && snap.DurationMinutes != option.Minutes() {
				if err := sc.SetDuration(ctx, option.Minutes()); err != nil {
					return err
				}
				snap.DurationMinutes = option.Minutes()
			}
		}
		out = Outcome{State: d.State, View: render(d.State, req.Slug, req.Params.Type, *l, snap)}
		return nil
	})
	return out, err
}

// SelectRequest is a visitor clicking a duration card.
type SelectRequest struct {
	SessionID string
	Slug      string
	Path      string
	Type      string
	// Wait bounds how long Select waits for a remounted fetch to settle.
	Wait time.Duration
}

// Select writes the chosen duration into the shared context and only then
// returns the URL carrying it, so the booking view never sees a type ahead
// of its duration.
func (r *Reconciler) Select(ctx context.Context, req SelectRequest) (Outcome, error) {
	ctx, span := otel.Tracer("page-service/view").Start(ctx, "view.Select",
		trace.WithAttributes(
			attribute.String("appointment.slug", req.Slug),
			attribute.String("appointment.duration_type", req.Type),
		))
	defer span.End()

	if req.SessionID == "" {
		return Outcome{}, schedctx.ErrNoSession
	}
	if strings.TrimSpace(req.Type) == "" {
		return Outcome{}, ErrUnknownOption
	}

	// An idle sweep or a visit to another slug ends the mount; Acquire then
	// remounts and the click waits for the new fetch like an observation.
	for attempt := 0; attempt < 2; attempt++ {
		m, _ := r.registry.Acquire(req.SessionID, req.Slug)
		if req.Wait > 0 {
			waitCtx, cancel := context.WithTimeout(ctx, req.Wait)
			m.Resource().Wait(waitCtx)
			cancel()
		}

		out, err := r.selectOn(ctx, m, req)
		if errors.Is(err, mount.ErrClosed) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return Outcome{}, err
		}
		return out, nil
	}
	return Outcome{}, ErrNotReady
}

func (r *Reconciler) selectOn(ctx context.Context, m *mount.Mount, req SelectRequest) (Outcome, error) {
	sc := schedctx.New(r.store, req.SessionID)
	var out Outcome

	err := m.Update(r.now(), func(l *mount.Local, res meetings.Result) error {
		if res.Status != meetings.StatusSuccess {
			return ErrNotReady
		}
		option, ok := res.Definition.Option(req.Type)
		if !ok {
			return ErrUnknownOption
		}
		if err := sc.SetDuration(ctx, option.Minutes()); err != nil {
			return err
		}
		d := Decide(option.ID, l.Integration.CallerType, res, r.callers)
		out = Outcome{State: d.State, Location: query.Rewrite(req.Path, option.ID)}
		r.selected(ctx, req.SessionID, req.Slug, option, l.Integration, events.SourceManual)
		return nil
	})
	return out, err
}

func (r *Reconciler) selected(ctx context.Context, sessionID, slug string, option meetings.DurationOption, integ mount.IntegrationContext, source string) {
	r.metrics.ObserveSelection(source)
	r.logger.Info("duration selected",
		"session_id", sessionID,
		"slug", slug,
		"duration_type", option.ID,
		"source", source,
	)
	r.publisher.PublishSelection(ctx, events.SelectionEvent{
		SessionID:       sessionID,
		Slug:            slug,
		DurationID:      option.ID,
		DurationMinutes: option.Minutes(),
		Source:          source,
		TaskID:          integ.TaskID,
		CallerType:      integ.CallerType,
	})
}
