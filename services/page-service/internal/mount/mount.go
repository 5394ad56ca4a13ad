// Package mount tracks one visitor's live entry view: the meeting definition
// fetch it started and the URL-derived local state it has observed so far.
package mount

import (
	"errors"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/query"
)

var ErrClosed = errors.New("mount: closed")

type VisitorIdentity struct {
	Email    string
	FullName string
}

type IntegrationContext struct {
	TaskID     string
	CallerType string
}

// Local is the per-mount state an observation may read and change.
type Local struct {
	Visitor     VisitorIdentity
	Integration IntegrationContext

	// Entered is set once the mount-time context writes are done.
	Entered bool
	// ContextApplied is set once the resolved definition was written to the
	// shared context. A mount fetches once, so this is once per resolution.
	ContextApplied bool
	// Done ends the mount when the observation returns.
	Done bool
}

// Absorb copies non-empty parameters into local state. Values are never
// cleared: a rewritten URL that drops them keeps what was already seen.
func (l *Local) Absorb(p query.Params) {
	if p.Email != "" {
		l.Visitor.Email = p.Email
	}
	if p.FullName != "" {
		l.Visitor.FullName = p.FullName
	}
	if p.TaskID != "" {
		l.Integration.TaskID = p.TaskID
	}
	if p.CallerType != "" {
		l.Integration.CallerType = p.CallerType
	}
}

type Mount struct {
	sessionID string
	slug      string
	resource  *meetings.Resource
	onClose   func()

	mu       sync.Mutex
	local    Local
	closed   bool
	lastSeen time.Time
}

func newMount(sessionID, slug string, resource *meetings.Resource, now time.Time, onClose func()) *Mount {
	return &Mount{
		sessionID: sessionID,
		slug:      slug,
		resource:  resource,
		onClose:   onClose,
		lastSeen:  now,
	}
}

func (m *Mount) SessionID() string { return m.sessionID }

func (m *Mount) Slug() string { return m.slug }

func (m *Mount) Resource() *meetings.Resource { return m.resource }

// Update runs fn as one serialised observation of the mount. fn sees the
// fetch result as of the moment the observation started. Setting l.Done
// closes the mount before Update returns.
func (m *Mount) Update(now time.Time, fn func(l *Local, res meetings.Result) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.lastSeen = now

	err := fn(&m.local, m.resource.Result())
	if m.local.Done {
		m.closeLocked()
	}
	return err
}

func (m *Mount) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close tears the mount down and cancels an in-flight fetch. Safe to repeat.
func (m *Mount) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Mount) closeLocked() {
	if m.closed {
		return
	}
	m.closed = true
	m.resource.Cancel()
	if m.onClose != nil {
		m.onClose()
	}
}

func (m *Mount) idleSince(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return now.Sub(m.lastSeen)
}
