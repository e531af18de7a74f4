package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"ttts/internal/game"
	"ttts/internal/network"
)

// errCancelled is returned by ReadFrame once the connection's session has
// been torn down by the peer.
var errCancelled = errors.New("connection cancelled")

// Conn is one accepted client. name, index, session and peer are written
// once (during handshake and pairing) and read-only afterwards.
type Conn struct {
	ID   string
	Addr string

	conn         net.Conn
	reader       *network.Reader
	idleTimeout  time.Duration
	writeTimeout time.Duration

	name    string
	index   int
	session *game.Session
	peer    *Conn

	writeMu    sync.Mutex
	cancelled  chan struct{}
	cancelOnce sync.Once
	closeOnce  sync.Once
}

func newConn(nc net.Conn, idleTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		ID:           uuid.NewString(),
		Addr:         nc.RemoteAddr().String(),
		conn:         nc,
		reader:       network.NewReader(nc),
		idleTimeout:  idleTimeout,
		writeTimeout: writeTimeout,
		cancelled:    make(chan struct{}),
	}
}

// Name implements game.Player.
func (c *Conn) Name() string { return c.name }

// Send implements game.Player. Frames are written whole. A write that
// fails or outlives writeTimeout closes the socket, so the connection's own
// read loop ends and the session is abandoned.
func (c *Conn) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 && !c.Cancelled() {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Role returns the mark assigned at pairing.
func (c *Conn) Role() game.Mark { return game.RoleOf(c.index) }

// ReadFrame blocks for the next line from the client. It returns
// errCancelled instead of a transport error when Cancel has been called.
func (c *Conn) ReadFrame() (string, error) {
	if c.idleTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}
	// Checked after arming the deadline so a concurrent Cancel always wins.
	if c.Cancelled() {
		return "", errCancelled
	}

	line, err := c.reader.ReadFrame()
	if c.Cancelled() {
		return "", errCancelled
	}
	return line, err
}

// Cancel wakes the goroutine blocked in ReadFrame and any writer blocked on
// a full socket. The cancelled flag is raised before either is interrupted.
func (c *Conn) Cancel() {
	c.cancelOnce.Do(func() {
		close(c.cancelled)
		c.conn.SetDeadline(time.Now())
	})
}

// Cancelled reports whether Cancel has been called.
func (c *Conn) Cancelled() bool {
	select {
	case <-c.cancelled:
		return true
	default:
		return false
	}
}

// Close closes the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
