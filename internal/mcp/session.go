package mcp

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// sendBuffer bounds how many responses can queue on a session before the
// client reads them off the stream.
const sendBuffer = 16

// Session routes responses for one SSE connection. It carries no translation
// or tool state; closing the stream closes the session.
type Session struct {
	ID string

	out  chan *Response
	done chan struct{}
	once sync.Once
}

func newSession() *Session {
	return &Session{
		ID:   uuid.NewString(),
		out:  make(chan *Response, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues a response for the session's stream. It fails when the session
// is closed or the client has stopped draining the stream.
func (s *Session) Send(resp *Response) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s is closed", s.ID)
	default:
	}

	select {
	case s.out <- resp:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s is closed", s.ID)
	default:
		return fmt.Errorf("session %s send buffer is full", s.ID)
	}
}

// Out exposes the response stream for the SSE writer.
func (s *Session) Out() <-chan *Response {
	return s.out
}

// Close marks the session dead. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SessionRegistry tracks live sessions. All methods are safe for concurrent
// use.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Open creates and tracks a new session.
func (r *SessionRegistry) Open() *Session {
	s := newSession()
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks up a live session by ID.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close removes a session and closes it.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
