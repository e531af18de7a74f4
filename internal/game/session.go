package game

import (
	"errors"
	"fmt"
	"sync"

	"ttts/internal/network"
	"ttts/pkg/logger"
)

// ErrSessionOver is returned when a command reaches a session that has
// already ended. The caller must not touch the session again.
var ErrSessionOver = errors.New("session already over")

// State is the coarse state of a session.
type State int

const (
	StateAwaitingMove State = iota
	StateDrawPending
	StateOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingMove:
		return "awaiting-move"
	case StateDrawPending:
		return "draw-pending"
	case StateOver:
		return "over"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EndReason records why a session ended.
type EndReason string

const (
	ReasonWin        EndReason = "win"
	ReasonGridFull   EndReason = "grid-full"
	ReasonAgreedDraw EndReason = "agreed-draw"
	ReasonResign     EndReason = "resign"
	ReasonMalformed  EndReason = "malformed"
	ReasonDisconnect EndReason = "disconnect"
	ReasonShutdown   EndReason = "shutdown"
)

// Player is one side of a session as the session sees it.
type Player interface {
	Name() string
	Send(frame []byte) error
}

// RoleOf returns the mark assigned to the player at index: the first to
// wait is X and moves first.
func RoleOf(index int) Mark {
	if index == 0 {
		return X
	}
	return O
}

// Session is the state machine shared by two paired players. All methods
// are safe for concurrent use; mutations are serialized by mu.
type Session struct {
	id  string
	log *logger.Logger

	mu        sync.Mutex
	players   [2]Player
	board     Board
	turn      Mark
	moves     int
	wantsDraw [2]bool
	state     State
	reason    EndReason
	winner    int
	done      chan struct{}
}

// NewSession pairs first (X) and second (O).
func NewSession(id string, first, second Player, log *logger.Logger) *Session {
	return &Session{
		id:      id,
		log:     log.With("session", id),
		players: [2]Player{first, second},
		board:   NewBoard(),
		turn:    X,
		state:   StateAwaitingMove,
		winner:  -1,
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Done is closed once the session reaches StateOver.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Player(index int) Player { return s.players[index] }

func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) Turn() Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Result reports why the session ended and the winner's index, or -1 for a
// draw or an unfinished session.
func (s *Session) Result() (EndReason, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason, s.winner
}

// Begin tells each player its role and the opponent's name.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.players {
		s.send(i, network.Begin(byte(RoleOf(i)), s.players[1-i].Name()))
	}
	s.log.Info("Session started: %s (X) vs %s (O)", s.players[0].Name(), s.players[1].Name())
}

// Process applies one command from the player at index. It reports true
// when this command ended the session, in which case the caller owns
// teardown.
func (s *Session) Process(index int, cmd network.Command) (bool, error) {
	if index != 0 && index != 1 {
		return false, fmt.Errorf("player index %d out of range", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOver {
		return false, ErrSessionOver
	}

	s.log.Debug("%s sent %s", s.players[index].Name(), cmd.Kind)
	opponent := 1 - index

	if cmd.Kind == network.CmdInvalid {
		s.send(index, network.Invalid(cmd.Reason))
		return false, nil
	}
	if s.wantsDraw[index] && cmd.Kind != network.CmdResign {
		s.send(index, network.Invalid(MsgAwaitingResponse))
		return false, nil
	}

	switch cmd.Kind {
	case network.CmdPlay:
		s.send(index, network.Invalid(MsgNoNewGame))

	case network.CmdMove:
		return s.move(index, cmd), nil

	case network.CmdSuggestDraw:
		if s.wantsDraw[opponent] {
			s.send(index, network.Invalid(MsgResolveDraw))
			break
		}
		s.wantsDraw[index] = true
		s.state = StateDrawPending
		s.send(opponent, network.Draw(cmd.Field))

	case network.CmdAcceptDraw:
		if !s.wantsDraw[opponent] {
			s.send(index, network.Invalid(MsgNoDrawRequested))
			break
		}
		s.broadcast(network.Over(network.OutcomeDraw, MsgAgreedDraw))
		s.end(ReasonAgreedDraw, -1)
		return true, nil

	case network.CmdRejectDraw:
		if !s.wantsDraw[opponent] {
			s.send(index, network.Invalid(MsgNoDrawRequested))
			break
		}
		s.wantsDraw[opponent] = false
		s.state = StateAwaitingMove
		s.send(opponent, network.Draw(cmd.Field))

	case network.CmdResign:
		s.send(opponent, network.Over(network.OutcomeWin, msgResigned(s.players[index].Name())))
		s.send(index, network.Over(network.OutcomeLoss, MsgYouResigned))
		s.end(ReasonResign, opponent)
		return true, nil

	default:
		return false, fmt.Errorf("unhandled command kind %s", cmd.Kind)
	}
	return false, nil
}

func (s *Session) move(index int, cmd network.Command) bool {
	role := RoleOf(index)
	switch {
	case s.wantsDraw[1-index]:
		s.send(index, network.Invalid(MsgResolveDraw))
		return false
	case role != s.turn:
		s.send(index, network.Invalid(MsgNotYourTurn))
		return false
	case Mark(cmd.Role) != role:
		s.send(index, network.Invalid(MsgWrongRole))
		return false
	}

	if err := s.board.Place(role, cmd.Col, cmd.Row); err != nil {
		s.send(index, network.Invalid(MsgOccupied))
		return false
	}
	s.moves++
	s.broadcast(network.Moved(byte(role), cmd.Position, s.board.String()))

	if s.board.Winner() == role {
		s.send(index, network.Over(network.OutcomeWin, MsgYouWin))
		s.send(1-index, network.Over(network.OutcomeLoss, msgWins(s.players[index].Name())))
		s.end(ReasonWin, index)
		return true
	}
	if s.board.Full() {
		s.broadcast(network.Over(network.OutcomeDraw, MsgGridFull))
		s.end(ReasonGridFull, -1)
		return true
	}
	s.turn = role.Opponent()
	return false
}

// Abandon ends the session because the player at index sent malformed
// input or lost its connection. The opponent wins by default. It reports
// false if the session had already ended.
func (s *Session) Abandon(index int, malformed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOver {
		return false
	}
	opponent := 1 - index
	if malformed {
		s.send(opponent, network.Over(network.OutcomeWin, msgDisconnected(s.players[index].Name())))
		s.send(index, network.Invalid(MsgTerminating))
		s.end(ReasonMalformed, opponent)
	} else {
		s.send(opponent, network.Over(network.OutcomeWin, MsgPeerTerminated))
		s.end(ReasonDisconnect, opponent)
	}
	return true
}

// Shutdown ends the session without notifying either player. It reports
// false if the session had already ended.
func (s *Session) Shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOver {
		return false
	}
	s.end(ReasonShutdown, -1)
	return true
}

// end must be called with mu held.
func (s *Session) end(reason EndReason, winner int) {
	s.state = StateOver
	s.reason = reason
	s.winner = winner
	close(s.done)

	if winner >= 0 {
		s.log.Info("Session over (%s): %s wins after %d moves", reason, s.players[winner].Name(), s.moves)
	} else {
		s.log.Info("Session over (%s) after %d moves", reason, s.moves)
	}
}

func (s *Session) broadcast(frame []byte) {
	s.send(0, frame)
	s.send(1, frame)
}

// send must be called with mu held. Write failures are left for the
// failing side's read loop to discover.
func (s *Session) send(index int, frame []byte) {
	if err := s.players[index].Send(frame); err != nil {
		s.log.Debug("write to %s failed: %v", s.players[index].Name(), err)
	}
}
