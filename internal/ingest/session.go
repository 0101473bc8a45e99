// Package ingest implements the operator ingestion workflow: a
// per-operator session state machine that collects uploaded media, a
// category and keywords, then commits catalog entries.
package ingest

import (
	"errors"
	"sync"
	"time"
)

// SessionState is the lifecycle state of an ingestion session.
type SessionState string

// Session states. Committed and cancelled are terminal; a session in a
// terminal state is removed from the live-session set.
const (
	StateCollecting       SessionState = "collecting"
	StateAwaitingCategory SessionState = "awaiting_category"
	StateAwaitingKeywords SessionState = "awaiting_keywords"
	StateCommitted        SessionState = "committed"
	StateCancelled        SessionState = "cancelled"
)

var errStaleTransition = errors.New("stale transition")

// Session holds one operator's in-progress batch. The mutex guards
// in-memory bookkeeping only; media pushes happen outside it, tracked
// by the in-flight WaitGroup so the collect->category transition can
// wait for outstanding pushes.
type Session struct {
	mu           sync.Mutex
	state        SessionState
	pending      []string
	category     string
	keywords     string
	lastActivity time.Time
	inflight     sync.WaitGroup
}

func newSession(now time.Time) *Session {
	return &Session{
		state:        StateCollecting,
		lastActivity: now,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingCount returns how many media URLs the session has collected.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// beginPush reserves a push slot while the session is still collecting.
func (s *Session) beginPush(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return errStaleTransition
	}
	s.lastActivity = now
	s.inflight.Add(1)
	return nil
}

// finishPush records the push outcome. A URL arriving after the session
// left the collecting state (cancel or timeout raced the push) is
// dropped rather than committed.
func (s *Session) finishPush(url string, ok bool) {
	s.mu.Lock()
	if ok && s.state == StateCollecting {
		s.pending = append(s.pending, url)
	}
	s.mu.Unlock()
	s.inflight.Done()
}

// advance moves collecting -> awaiting_category once at least one item
// was collected. Callers must have waited for in-flight pushes first.
func (s *Session) advance(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return 0, errStaleTransition
	}
	if len(s.pending) == 0 {
		return 0, nil
	}
	s.state = StateAwaitingCategory
	s.lastActivity = now
	return len(s.pending), nil
}

// chooseCategory moves awaiting_category -> awaiting_keywords.
func (s *Session) chooseCategory(category string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingCategory {
		return errStaleTransition
	}
	s.category = category
	s.state = StateAwaitingKeywords
	s.lastActivity = now
	return nil
}

// takeForCommit moves awaiting_keywords -> committed and hands the
// collected batch to the caller. The commit itself (repository inserts)
// happens outside the session lock.
func (s *Session) takeForCommit(keywords string, now time.Time) ([]string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingKeywords {
		return nil, "", errStaleTransition
	}
	s.keywords = keywords
	s.state = StateCommitted
	s.lastActivity = now
	urls := s.pending
	s.pending = nil
	return urls, s.category, nil
}

// cancel moves any non-terminal state to cancelled. Returns false if
// the session was already terminal.
func (s *Session) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCommitted || s.state == StateCancelled {
		return false
	}
	s.state = StateCancelled
	s.pending = nil
	return true
}

// expired reports whether the session has been idle past the TTL and,
// if so, cancels it. The check and the transition share the session
// mutex so a timeout never corrupts a transition in progress.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCommitted || s.state == StateCancelled {
		return true
	}
	if now.Sub(s.lastActivity) < ttl {
		return false
	}
	s.state = StateCancelled
	s.pending = nil
	return true
}
