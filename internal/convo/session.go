package convo

import (
	"sync"
	"time"

	"bot-zamovlennya/internal/ledger"
)

// Stage is the position of one user inside a multi-step dialogue.
type Stage int

const (
	StageIdle Stage = iota
	StageCreating
	StageReview
	StageAwaitSearch
	StageAwaitStatus
	StageAwaitTracking
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCreating:
		return "creating"
	case StageReview:
		return "review"
	case StageAwaitSearch:
		return "await_search"
	case StageAwaitStatus:
		return "await_status"
	case StageAwaitTracking:
		return "await_tracking"
	}
	return "unknown"
}

// Draft accumulates new-order fields step by step. Values are stored exactly
// as typed; nothing is validated or normalised.
type Draft struct {
	Product  string
	Size     string
	Fabric   string
	Payment  string
	Shipping string
	Link     string
	Amount   string
}

// Session is one user's dialogue state. Step counts collected new-order
// fields (1..7); Matched and SelectedStatus carry the edit flow.
type Session struct {
	Stage          Stage
	Step           int
	Draft          Draft
	Deadline       time.Time
	Matched        ledger.Row
	SelectedStatus ledger.Status
}

// SessionStore holds live dialogue state keyed by user identity. Sessions
// live in memory only: a process restart drops every open dialogue.
type SessionStore struct {
	mu     sync.RWMutex
	byUser map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{byUser: map[string]*Session{}}
}

// Get returns the user's live session, or nil when the user is idle.
func (s *SessionStore) Get(userID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byUser[userID]
}

// Put installs (or replaces) the user's session.
func (s *SessionStore) Put(userID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = sess
}

// Clear drops the user's session, returning them to idle.
func (s *SessionStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}
