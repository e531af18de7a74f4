package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"ttts/pkg/logger"
)

func pipeConn(t *testing.T, name string) *Conn {
	t.Helper()
	server, client := net.Pipe()
	go io.Copy(io.Discard, client)
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	c := newConn(server, 0, 0)
	c.name = name
	return c
}

type entry struct {
	conn *Conn
	err  error
}

func TestWaitingRoomPairsTwoAtATime(t *testing.T) {
	sessions := NewSessionStore()
	room := NewWaitingRoom(sessions, logger.New("test", zaptest.NewLogger(t)))

	conns := []*Conn{pipeConn(t, "a"), pipeConn(t, "b"), pipeConn(t, "c")}
	results := make(chan entry, len(conns))
	for _, c := range conns {
		go func(c *Conn) {
			_, err := room.Enter(c)
			results <- entry{c, err}
		}(c)
	}

	paired := []*Conn{(<-results).conn, (<-results).conn}
	if paired[0].session == nil || paired[0].session != paired[1].session {
		t.Fatal("paired connections do not share a session")
	}
	if paired[0].peer != paired[1] || paired[1].peer != paired[0] {
		t.Error("peers not wired to each other")
	}
	if paired[0].index == paired[1].index {
		t.Errorf("both players have index %d", paired[0].index)
	}
	if got := sessions.Len(); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
	if got := room.Len(); got != 1 {
		t.Errorf("waiting = %d, want 1", got)
	}

	room.Close()
	last := <-results
	if !errors.Is(last.err, ErrRoomClosed) {
		t.Errorf("parked Enter returned %v, want ErrRoomClosed", last.err)
	}
	if last.conn.session != nil {
		t.Error("parked connection was given a session")
	}
	if room.Len() != 0 {
		t.Error("closed room still holds a waiter")
	}
}

func TestWaitingRoomFirstIsX(t *testing.T) {
	sessions := NewSessionStore()
	room := NewWaitingRoom(sessions, logger.New("test", zaptest.NewLogger(t)))

	first, second := pipeConn(t, "first"), pipeConn(t, "second")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		room.Enter(first)
	}()
	eventually(t, func() bool { return room.Len() == 1 })

	session, err := room.Enter(second)
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	wg.Wait()

	if session.Player(0) != first || session.Player(1) != second {
		t.Error("players stored out of arrival order")
	}
	if first.Role().String() != "X" || second.Role().String() != "O" {
		t.Errorf("roles = %s/%s, want X/O", first.Role(), second.Role())
	}
	if _, conns, ok := sessions.Get(session.ID()); !ok || conns != [2]*Conn{first, second} {
		t.Error("session store does not hold both connections")
	}
}

func TestClosedRoomRejectsEntrants(t *testing.T) {
	room := NewWaitingRoom(NewSessionStore(), logger.New("test", zaptest.NewLogger(t)))
	room.Close()

	if _, err := room.Enter(pipeConn(t, "late")); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Enter after Close = %v, want ErrRoomClosed", err)
	}
}
