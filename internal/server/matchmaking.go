package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"ttts/internal/game"
	"ttts/pkg/logger"
)

// ErrRoomClosed is returned to callers parked in the waiting room when the
// server stops.
var ErrRoomClosed = errors.New("waiting room closed")

// WaitingRoom pairs named connections two at a time. One mutex covers the
// room slot and the session wiring of both connections, so a woken waiter
// always observes a fully built session.
type WaitingRoom struct {
	mu      sync.Mutex
	cond    *sync.Cond
	waiting *Conn
	closed  bool

	sessions *SessionStore
	logger   *logger.Logger
}

func NewWaitingRoom(sessions *SessionStore, log *logger.Logger) *WaitingRoom {
	r := &WaitingRoom{sessions: sessions, logger: log}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Enter parks c until a partner arrives, or pairs it with the connection
// already waiting. The first to wait plays X.
func (r *WaitingRoom) Enter(c *Conn) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}

	if r.waiting == nil {
		c.index = 0
		r.waiting = c
		r.logger.Debug("%s is waiting for an opponent", c.name)

		for c.session == nil && !r.closed {
			r.cond.Wait()
		}
		if c.session == nil {
			if r.waiting == c {
				r.waiting = nil
			}
			return nil, ErrRoomClosed
		}
		return c.session, nil
	}

	first := r.waiting
	r.waiting = nil
	c.index = 1

	session := game.NewSession(uuid.NewString(), first, c, r.logger)
	first.session, c.session = session, session
	first.peer, c.peer = c, first
	r.sessions.Put(session, first, c)
	session.Begin()

	r.logger.Info("Match created: %s vs %s (session %s)", first.name, c.name, session.ID())
	r.cond.Signal()
	return session, nil
}

// Len returns the number of parked connections, 0 or 1.
func (r *WaitingRoom) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting == nil {
		return 0
	}
	return 1
}

// Close wakes any parked caller with ErrRoomClosed and refuses new entrants.
func (r *WaitingRoom) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
}
