package service

import (
	"sync"

	"github.com/set-night/captionbot/internal/domain"
)

// SessionTracker owns the per-user image flow state.
//
// State reads and writes are guarded by one short-lived mutex. Acquire
// additionally hands out a per-user lock so that the router can process
// messages of the same user one at a time while other users proceed.
type SessionTracker struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	state domain.SessionState
	turn  sync.Mutex
	refs  int
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{entries: make(map[string]*sessionEntry)}
}

// BeginWaiting arms the awaiting-image state. Calling it twice is a no-op.
func (t *SessionTracker) BeginWaiting(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry(userID).state = domain.StateAwaitingImage
}

// IsWaiting reports whether the user is awaiting an image. Unseen users are idle.
func (t *SessionTracker) IsWaiting(userID string) bool {
	return t.State(userID) == domain.StateAwaitingImage
}

// State returns the user's state, StateIdle for unseen users.
func (t *SessionTracker) State(userID string) domain.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[userID]; ok {
		return e.state
	}
	return domain.StateIdle
}

// Clear resets the user to idle. Safe for users that were never armed.
func (t *SessionTracker) Clear(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	if !ok {
		return
	}
	e.state = domain.StateIdle
	t.release(userID, e)
}

// Acquire blocks until the caller holds the user's turn and returns the
// function that gives it back.
func (t *SessionTracker) Acquire(userID string) (release func()) {
	t.mu.Lock()
	e := t.entry(userID)
	e.refs++
	t.mu.Unlock()

	e.turn.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.turn.Unlock()
			t.mu.Lock()
			e.refs--
			t.release(userID, e)
			t.mu.Unlock()
		})
	}
}

// Len returns the number of tracked users.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// entry returns the user's entry, creating it idle. Caller holds t.mu.
func (t *SessionTracker) entry(userID string) *sessionEntry {
	e, ok := t.entries[userID]
	if !ok {
		e = &sessionEntry{state: domain.StateIdle}
		t.entries[userID] = e
	}
	return e
}

// release drops idle entries nobody holds. Caller holds t.mu.
func (t *SessionTracker) release(userID string, e *sessionEntry) {
	if e.refs == 0 && e.state == domain.StateIdle {
		delete(t.entries, userID)
	}
}
