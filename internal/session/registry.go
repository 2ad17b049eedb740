// Package session keeps the live sessions of the process: one uploaded
// dataset, its system prompt and its conversation thread per session id.
package session

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/logging"
)

type entry struct {
	session domain.Session
	chat    sync.Mutex
}

// Registry is the concurrency-safe session table. Callers only ever see
// copies of the stored sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
		logger:   logger,
	}
}

// Put registers s, replacing any session with the same id. The replacement
// starts without a thread.
func (r *Registry) Put(s domain.Session) domain.Session {
	now := r.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastUsedAt = now
	s.ThreadID = ""

	r.mu.Lock()
	_, replaced := r.sessions[s.SessionID]
	r.sessions[s.SessionID] = &entry{session: s}
	r.mu.Unlock()

	if replaced {
		r.logger.Info("session replaced", zap.String("session_id", s.SessionID))
	}
	return s
}

// Get returns a copy of the session.
func (r *Registry) Get(sessionID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	return e.session, true
}

// List returns copies of all sessions ordered by id.
func (r *Registry) List() []domain.Session {
	r.mu.RLock()
	out := make([]domain.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.session)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Touch marks the session as used now.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionID]; ok {
		e.session.LastUsedAt = r.now()
	}
}

// Delete removes the session and its files. It waits for a turn in flight
// on the session to finish, so no turn sees its store vanish or change
// underneath it. It returns the removed session.
func (r *Registry) Delete(sessionID string) (domain.Session, bool) {
	for {
		r.mu.RLock()
		e, ok := r.sessions[sessionID]
		r.mu.RUnlock()
		if !ok {
			return domain.Session{}, false
		}

		e.chat.Lock()
		r.mu.Lock()
		if r.sessions[sessionID] != e {
			// Replaced or deleted while waiting.
			r.mu.Unlock()
			e.chat.Unlock()
			continue
		}
		delete(r.sessions, sessionID)
		r.mu.Unlock()

		r.removeFiles(e.session)
		e.chat.Unlock()
		r.logger.Info("session deleted", zap.String("session_id", sessionID))
		return e.session, true
	}
}

// Acquire takes the chat lock of a session. Turns on one session run one at
// a time; the returned Turn must be released.
func (r *Registry) Acquire(sessionID string) (*Turn, error) {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	e.chat.Lock()

	// The session may have been replaced or deleted while waiting.
	r.mu.Lock()
	if r.sessions[sessionID] != e {
		r.mu.Unlock()
		e.chat.Unlock()
		return r.Acquire(sessionID)
	}
	e.session.LastUsedAt = r.now()
	snapshot := e.session
	r.mu.Unlock()

	return &Turn{Session: snapshot, registry: r, entry: e}, nil
}

// Sweep removes sessions idle for longer than ttl together with their files.
// Sessions in the middle of a chat turn are skipped. A ttl of zero removes
// nothing.
func (r *Registry) Sweep(ttl time.Duration) []domain.Session {
	if ttl <= 0 {
		return nil
	}
	cutoff := r.now().Add(-ttl)

	var removed []domain.Session
	r.mu.Lock()
	for id, e := range r.sessions {
		if !e.session.LastUsedAt.Before(cutoff) {
			continue
		}
		if !e.chat.TryLock() {
			continue
		}
		delete(r.sessions, id)
		e.chat.Unlock()
		removed = append(removed, e.session)
	}
	r.mu.Unlock()

	for _, s := range removed {
		r.removeFiles(s)
		r.logger.Info("idle session expired",
			zap.String("session_id", s.SessionID),
			zap.Time("last_used_at", s.LastUsedAt))
	}
	return removed
}

func (r *Registry) removeFiles(s domain.Session) {
	for _, path := range []string{s.StorePath, s.UploadPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("failed to remove session file",
				zap.String("session_id", s.SessionID),
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

// Turn is an exclusive chat turn on one session.
type Turn struct {
	Session domain.Session

	registry *Registry
	entry    *entry
	once     sync.Once
}

// SetThread binds a thread to the session. It is a no-op when the session
// was replaced or deleted since the turn started.
func (t *Turn) SetThread(threadID string) bool {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	if t.registry.sessions[t.Session.SessionID] != t.entry {
		return false
	}
	t.entry.session.ThreadID = threadID
	t.Session.ThreadID = threadID
	return true
}

// Release ends the turn.
func (t *Turn) Release() {
	t.once.Do(func() {
		t.registry.Touch(t.Session.SessionID)
		t.entry.chat.Unlock()
	})
}
