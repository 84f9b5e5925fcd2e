package store

import (
	"sync"
	"time"
)

// Session tracks one applicant's progress through the DM questionnaire.
// The expiry timer is owned by the session: at most one armed timer exists
// at any moment, and deleting the session always disarms it.
type Session struct {
	Step         int
	Answers      map[string]string
	OriginChatID int64

	expiry *time.Timer
}

func (s *Session) disarm() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

// SessionStore keeps active questionnaire sessions in memory, keyed by
// applicant id. Message events arrive on a single goroutine, but expiry
// timers fire on their own goroutines, so every compound read-modify-write
// happens inside one locked call.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
	}
}

// Create registers a fresh session for the applicant. It returns false when
// a session already exists, leaving the existing one untouched.
func (st *SessionStore) Create(userID int64, originChatID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sessions[userID]; exists {
		return false
	}

	st.sessions[userID] = &Session{
		Answers:      make(map[string]string),
		OriginChatID: originChatID,
	}

	return true
}

func (st *SessionStore) Has(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, exists := st.sessions[userID]

	return exists
}

// Update runs fn against the applicant's session under the store lock.
// fn must not block: it is the single synchronous segment in which a step's
// state may be read and written.
func (st *SessionStore) Update(userID int64, fn func(*Session)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sessions[userID]
	if !exists {
		return false
	}

	fn(s)

	return true
}

// Delete removes the session and disarms its timer. Returns false when no
// session existed.
func (st *SessionStore) Delete(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sessions[userID]
	if !exists {
		return false
	}

	s.disarm()
	delete(st.sessions, userID)

	return true
}

// DeleteIf removes the session only when cond holds. Expiry callbacks use it
// so a timer that fired for an already-answered question cannot tear down the
// session's next step.
func (st *SessionStore) DeleteIf(userID int64, cond func(*Session) bool) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sessions[userID]
	if !exists || !cond(s) {
		return false
	}

	s.disarm()
	delete(st.sessions, userID)

	return true
}

// ArmExpiry schedules fn after d, replacing any previously armed timer for
// the session.
func (st *SessionStore) ArmExpiry(userID int64, d time.Duration, fn func()) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sessions[userID]
	if !exists {
		return false
	}

	if s.expiry != nil {
		s.expiry.Stop()
	}
	s.expiry = time.AfterFunc(d, fn)

	return true
}
