package client

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"ttts/internal/game"
	"ttts/internal/network"
	"ttts/pkg/logger"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		role game.Mark
		want string
	}{
		{"move 2,3", game.X, "MOVE|6|X|2,3|\n"},
		{"m 1, 1", game.O, "MOVE|6|O|1,1|\n"},
		{"draw s", game.X, "DRAW|2|S|\n"},
		{"draw accept", game.O, "DRAW|2|A|\n"},
		{"DRAW R", game.O, "DRAW|2|R|\n"},
		{"resign", game.X, "RSGN|0|\n"},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.line, tt.role)
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", tt.line, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("ParseCommand(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, line := range []string{"move", "move 4,1", "move 1;1", "move a,b", "draw x", "dance"} {
		if _, err := ParseCommand(line, game.X); err == nil {
			t.Errorf("ParseCommand(%q) succeeded", line)
		}
	}
	if _, err := ParseCommand("quit", game.X); !errors.Is(err, errQuit) {
		t.Errorf("quit returned %v", err)
	}
	if _, err := ParseCommand("help", game.X); !errors.Is(err, errHelp) {
		t.Errorf("help returned %v", err)
	}
}

func TestValidateName(t *testing.T) {
	if err := validateName("Alice Smith"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	for _, name := range []string{"", "a|b", strings.Repeat("n", network.MaxPayload)} {
		if err := validateName(name); err == nil {
			t.Errorf("validateName(%q) succeeded", name)
		}
	}
	if err := validateName("a\nb"); err == nil || !strings.Contains(err.Error(), "newline") {
		t.Errorf("validateName with a newline = %v", err)
	}
}

func newTestClient(t *testing.T) (*Client, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &Client{
		display: newDisplay(&out),
		logger:  logger.New("test", zaptest.NewLogger(t)),
		board:   game.NewBoard(),
		done:    make(chan struct{}),
	}
	return c, &out
}

func decode(t *testing.T, frame []byte) network.Frame {
	t.Helper()
	f, err := network.Decode(strings.TrimSuffix(string(frame), "\n"))
	if err != nil {
		t.Fatalf("Decode(%q): %v", frame, err)
	}
	return f
}

func TestProcessServerFrames(t *testing.T) {
	c, out := newTestClient(t)

	if c.processServerFrame(decode(t, network.Begin('O', "Alice"))) {
		t.Fatal("BEGN ended the game")
	}
	if c.role != game.O || c.opponent != "Alice" || !c.inGame {
		t.Errorf("after BEGN role=%v opponent=%q inGame=%v", c.role, c.opponent, c.inGame)
	}

	c.processServerFrame(decode(t, network.Moved('X', "2,2", "....X....")))
	if c.board.At(2, 2) != game.X {
		t.Errorf("board not updated: %s", c.board)
	}

	out.Reset()
	c.processServerFrame(decode(t, network.Invalid("It is not your turn.")))
	if !strings.Contains(out.String(), "It is not your turn.") {
		t.Errorf("INVL not shown: %q", out.String())
	}

	out.Reset()
	c.processServerFrame(decode(t, network.Draw("S")))
	if !strings.Contains(out.String(), "suggests a draw") {
		t.Errorf("draw suggestion not shown: %q", out.String())
	}

	out.Reset()
	if !c.processServerFrame(decode(t, network.Over(network.OutcomeLoss, "Tic-tac-toe, Alice wins!"))) {
		t.Fatal("OVER did not end the game")
	}
	if c.inGame {
		t.Error("still in game after OVER")
	}
	if !strings.Contains(out.String(), "DEFEAT! Tic-tac-toe, Alice wins!") {
		t.Errorf("outcome not shown: %q", out.String())
	}
}
