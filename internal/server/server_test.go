package server

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"ttts/internal/config"
	"ttts/internal/game"
	"ttts/internal/network"
	"ttts/pkg/logger"
)

const ioTimeout = 5 * time.Second

func startServer(t *testing.T, opts ...func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	for _, opt := range opts {
		opt(cfg)
	}
	srv := NewServer(cfg, logger.New("test", zaptest.NewLogger(t)))

	ln, err := Listen(context.Background(), cfg.Host, cfg.Port)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	t.Cleanup(func() {
		srv.Stop()
		if err := <-served; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	})

	eventually(t, func() bool { return srv.Addr() != nil })
	return srv
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) send(frame string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(frame)); err != nil {
		c.t.Fatalf("write %q: %v", frame, err)
	}
}

func (c *testClient) expect(want string) {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(ioTimeout))
	got, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("waiting for %q: %v", want, err)
	}
	if got != want {
		c.t.Fatalf("got %q, want %q", got, want)
	}
}

func (c *testClient) expectClosed() {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(ioTimeout))
	if line, err := c.r.ReadString('\n'); err == nil {
		c.t.Fatalf("expected closed connection, got %q", line)
	} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
		c.t.Fatalf("connection still open after %v", ioTimeout)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(ioTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// pair connects Alice (X) and Bob (O) and consumes the greeting frames.
func pair(t *testing.T, srv *Server) (*testClient, *testClient) {
	t.Helper()

	alice := dial(t, srv)
	alice.send("PLAY|6|Alice|\n")
	alice.expect("WAIT|0|\n")
	eventually(t, func() bool { return srv.Room().Len() == 1 })

	bob := dial(t, srv)
	bob.send("PLAY|4|Bob|\n")
	bob.expect("WAIT|0|\n")
	alice.expect("BEGN|6|X|Bob|\n")
	bob.expect("BEGN|8|O|Alice|\n")
	return alice, bob
}

func TestMovesAreBroadcast(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	alice.send("MOVE|6|X|2,2|\n")
	alice.expect("MOVD|16|X|2,2|....X....|\n")
	bob.expect("MOVD|16|X|2,2|....X....|\n")

	bob.send("MOVE|6|O|1,1|\n")
	alice.expect("MOVD|16|O|1,1|O...X....|\n")
	bob.expect("MOVD|16|O|1,1|O...X....|\n")

	bob.send("MOVE|6|O|3,3|\n")
	bob.expect(string(network.Invalid(game.MsgNotYourTurn)))
}

func TestResignReleasesNames(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	bob.send("RSGN|0|\n")
	bob.expect("OVER|21|L|You have resigned.|\n")
	alice.expect("OVER|20|W|Bob has resigned.|\n")
	alice.expectClosed()
	bob.expectClosed()

	eventually(t, func() bool { return srv.Names().Len() == 0 && srv.Sessions().Len() == 0 })

	// Both names are free again.
	pair(t, srv)
}

func TestAgreedDraw(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	alice.send("DRAW|2|S|\n")
	bob.expect("DRAW|2|S|\n")

	alice.send("MOVE|6|X|1,1|\n")
	alice.expect(string(network.Invalid(game.MsgAwaitingResponse)))

	bob.send("DRAW|2|A|\n")
	draw := string(network.Over(network.OutcomeDraw, game.MsgAgreedDraw))
	alice.expect(draw)
	bob.expect(draw)
	alice.expectClosed()
	bob.expectClosed()
}

func TestWinningLine(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	moves := []struct {
		player *testClient
		frame  string
	}{
		{alice, "MOVE|6|X|1,1|\n"},
		{bob, "MOVE|6|O|1,2|\n"},
		{alice, "MOVE|6|X|2,1|\n"},
		{bob, "MOVE|6|O|2,2|\n"},
	}
	for _, m := range moves {
		m.player.send(m.frame)
		alice.r.ReadString('\n')
		bob.r.ReadString('\n')
	}

	alice.send("MOVE|6|X|3,1|\n")
	alice.expect("MOVD|16|X|3,1|XXXOO....|\n")
	bob.expect("MOVD|16|X|3,1|XXXOO....|\n")
	alice.expect(string(network.Over(network.OutcomeWin, game.MsgYouWin)))
	bob.expect("OVER|27|L|Tic-tac-toe, Alice wins!|\n")
	alice.expectClosed()
	bob.expectClosed()
}

func TestDisconnectForfeits(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	bob.conn.Close()
	alice.expect(string(network.Over(network.OutcomeWin, game.MsgPeerTerminated)))
	alice.expectClosed()

	eventually(t, func() bool { return srv.Names().Len() == 0 && srv.Sessions().Len() == 0 })
}

func TestMalformedInputForfeits(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	bob.send("MOVE|99|O|1,1|\n")
	bob.expect(string(network.Invalid(game.MsgTerminating)))
	alice.expect("OVER|20|W|Bob disconnected.|\n")
	alice.expectClosed()
	bob.expectClosed()
}

func TestNameTaken(t *testing.T) {
	srv := startServer(t)

	alice := dial(t, srv)
	alice.send("PLAY|6|Alice|\n")
	alice.expect("WAIT|0|\n")

	imposter := dial(t, srv)
	imposter.send("PLAY|6|Alice|\n")
	imposter.expect("INVL|18|Username is taken|\n")
	imposter.expectClosed()

	if got := srv.Names().Len(); got != 1 {
		t.Errorf("names reserved = %d, want 1", got)
	}
}

func TestExpectedPlay(t *testing.T) {
	srv := startServer(t)

	// The last entry fills the frame buffer without a newline.
	for _, frame := range []string{"MOVE|6|X|1,1|\n", "nonsense\n", strings.Repeat("P", 512)} {
		c := dial(t, srv)
		c.send(frame)
		c.expect("INVL|24|Expected PLAY protocol.|\n")
		c.expectClosed()
	}
}

func TestStopEndsEverything(t *testing.T) {
	srv := startServer(t)
	alice, bob := pair(t, srv)

	carol := dial(t, srv)
	carol.send("PLAY|6|Carol|\n")
	carol.expect("WAIT|0|\n")
	eventually(t, func() bool { return srv.Room().Len() == 1 })

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	alice.expectClosed()
	bob.expectClosed()
	carol.expectClosed()

	if srv.Sessions().Len() != 0 || srv.Names().Len() != 0 {
		t.Errorf("sessions=%d names=%d after Stop", srv.Sessions().Len(), srv.Names().Len())
	}
}

// flood writes invalid commands, each answered with INVL, and never reads
// the replies.
func (c *testClient) flood() {
	frames := bytes.Repeat([]byte("DRAW|2|Z|\n"), 2000000)
	go c.conn.Write(frames)
}

func TestStopWithStalledReader(t *testing.T) {
	srv := startServer(t)
	_, bob := pair(t, srv)

	bob.flood()
	time.Sleep(300 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- srv.Stop() }()

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop: %v", err)
		}
	case <-time.After(ioTimeout):
		t.Fatal("Stop blocked behind a client that stopped reading")
	}
	if srv.Names().Len() != 0 {
		t.Errorf("names reserved after Stop: %d", srv.Names().Len())
	}
}

func TestStalledReaderForfeits(t *testing.T) {
	srv := startServer(t, func(cfg *config.Config) {
		cfg.WriteTimeout = 200 * time.Millisecond
	})
	alice, bob := pair(t, srv)

	bob.flood()
	alice.expect(string(network.Over(network.OutcomeWin, game.MsgPeerTerminated)))
	alice.expectClosed()

	eventually(t, func() bool { return srv.Names().Len() == 0 && srv.Sessions().Len() == 0 })
}
