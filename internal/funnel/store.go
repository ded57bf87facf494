package funnel

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionTTL bounds how long an untouched funnel session survives. Well
// past the hold TTL; an abandoned session's request expires on its own.
const sessionTTL = time.Hour

// Store keeps funnel sessions in memory. Sessions are per-caller UI
// state, not durable records: losing them on restart costs the caller a
// re-walk of the funnel, never a booking or a hold.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Create(sess *Session) *Session {
	now := time.Now().UTC()
	sess.ID = uuid.New().String()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(now)
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || time.Now().UTC().Sub(sess.UpdatedAt) > sessionTTL {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Save(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// prune drops expired sessions. Called under lock.
func (s *Store) prune(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > sessionTTL {
			delete(s.sessions, id)
		}
	}
}
