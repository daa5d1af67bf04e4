// Package session keeps per-sender conversation context between turns
// and serializes turn processing per sender so concurrent webhook
// deliveries cannot interleave a conversation.
package session

import (
	"sync"

	"fleetmind/internal/logging"
	"fleetmind/internal/pipeline"
)

// Session is the durable slice of turn state for one sender. Only the
// conversation history, accumulated entities, and focus survive between
// turns; everything else is per-turn scratch.
type Session struct {
	Messages []pipeline.Message
	Entities pipeline.Entities
	Focus    map[string]int64
}

// Store holds sessions keyed by sender id (phone number, web session
// uuid). Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-sender mutex. Callers must invoke the returned
// unlock function when the turn finishes.
func (s *Store) Lock(sender string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[sender]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sender] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Load copies a sender's saved context into a fresh turn state.
func (s *Store) Load(sender string, st *pipeline.TurnState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sender]
	if !ok {
		return
	}
	st.Messages = append(st.Messages[:0], sess.Messages...)
	st.Entities = sess.Entities.Clone()
	st.Focus = make(map[string]int64, len(sess.Focus))
	for k, v := range sess.Focus {
		st.Focus[k] = v
	}
	logging.Session("loaded session %s (%d messages)", sender, len(sess.Messages))
}

// Save persists the turn state's durable slice back under the sender.
func (s *Store) Save(sender string, st *pipeline.TurnState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		Messages: append([]pipeline.Message(nil), st.Messages...),
		Entities: st.Entities.Clone(),
		Focus:    make(map[string]int64, len(st.Focus)),
	}
	for k, v := range st.Focus {
		sess.Focus[k] = v
	}
	s.sessions[sender] = sess
	logging.Session("saved session %s (%d messages)", sender, len(sess.Messages))
}

// Reset drops a sender's context.
func (s *Store) Reset(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sender)
	logging.Session("reset session %s", sender)
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
