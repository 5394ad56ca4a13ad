package schedctx

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Used when Redis is not configured.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*memorySession
}

type memorySession struct {
	fields    map[Field][]byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*memorySession{},
	}
}

func (s *MemoryStore) SetField(_ context.Context, sessionID string, field Field, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := s.sessions[sessionID]
	if sess == nil || now.After(sess.expiresAt) {
		sess = &memorySession{fields: map[Field][]byte{}}
		s.sessions[sessionID] = sess
	}
	sess.fields[field] = append([]byte(nil), value...)
	sess.expiresAt = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) Fields(_ context.Context, sessionID string) (map[Field][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[Field][]byte{}
	sess := s.sessions[sessionID]
	if sess == nil {
		return out, nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return out, nil
	}
	for k, v := range sess.fields {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// Sweep drops expired sessions.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx ends.
func (s *MemoryStore) Run(ctx context.Context, every time.Duration) {
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
			s.Sweep()
		}
	}
}
