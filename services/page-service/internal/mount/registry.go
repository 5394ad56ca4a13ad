package mount

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/metrics"
)

// Registry holds at most one mount per visitor session.
type Registry struct {
	fetcher meetings.Fetcher
	idleTTL time.Duration
	logger  *slog.Logger
	metrics *metrics.PageMetrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	mounts map[string]*Mount
}

type RegistryConfig struct {
	Fetcher meetings.Fetcher
	IdleTTL time.Duration
	Logger  *slog.Logger
	Metrics *metrics.PageMetrics
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		fetcher: cfg.Fetcher,
		idleTTL: cfg.IdleTTL,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		mounts:  map[string]*Mount{},
	}
}

// Acquire returns the session's mount for slug, mounting it when there is
// none, when the previous one ended, or when the slug changed. A new mount
// starts its fetch immediately. created reports whether a mount was made.
func (r *Registry) Acquire(sessionID, slug string) (m *Mount, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.mounts[sessionID]; existing != nil {
		if existing.Slug() == slug && !existing.Closed() {
			return existing, false
		}
		existing.Close()
	}

	resource := meetings.Start(r.ctx, r.fetcher, slug)
	m = newMount(sessionID, slug, resource, r.now(), r.metrics.MountClosed)
	r.mounts[sessionID] = m
	r.metrics.MountOpened()
	r.logger.Debug("mounted entry view", "session_id", sessionID, "slug", slug)
	return m, true
}

// Sweep drops closed mounts and closes the ones idle past the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, m := range r.mounts {
		if m.Closed() || m.idleSince(now) > r.idleTTL {
			m.Close()
			delete(r.mounts, id)
			n++
		}
	}
	return n
}

func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("swept idle mounts", "count", n)
			}
		}
	}
}

// Close unmounts everything and cancels all in-flight fetches.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.mounts {
		m.Close()
		delete(r.mounts, id)
	}
	r.cancel()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mounts)
}
