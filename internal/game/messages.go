package game

import "fmt"

// Corrections sent with INVL. The session continues after each of these.
const (
	MsgNotYourTurn      = "It is not your turn."
	MsgWrongRole        = "Incorrect role selected."
	MsgOccupied         = "That space is occupied."
	MsgNoDrawRequested  = "No draw was requested."
	MsgAwaitingResponse = "Waiting for opponent's response to draw request."
	MsgResolveDraw      = "Draw request must be rejected or accepted."
	MsgNoNewGame        = "You cannot start a new game at this time."
	MsgTerminating      = "Error reading data, terminating connection."
)

// Texts carried by OVER.
const (
	MsgYouWin         = "Tic-tac-toe, you win!"
	MsgGridFull       = "Draw, the grid is full."
	MsgAgreedDraw     = "Players agreed to draw."
	MsgYouResigned    = "You have resigned."
	MsgPeerTerminated = "The other user has terminated the connection."
)

func msgWins(name string) string         { return fmt.Sprintf("Tic-tac-toe, %s wins!", name) }
func msgResigned(name string) string     { return fmt.Sprintf("%s has resigned.", name) }
func msgDisconnected(name string) string { return fmt.Sprintf("%s disconnected.", name) }
