// Package network implements the line-oriented wire protocol spoken between
// clients and the game server.
//
// Every frame has the shape
//
//	TAG|LENGTH|field|field|...|\n
//
// where LENGTH is the decimal byte count of everything after the second '|'
// up to, but excluding, the terminating newline.
package network

import (
	"errors"
	"fmt"
)

// Tag is the four-character command or event name that opens a frame.
type Tag string

const (
	// Client commands
	TagPlay   Tag = "PLAY"
	TagDraw   Tag = "DRAW"
	TagResign Tag = "RSGN"
	TagMove   Tag = "MOVE"

	// Server events
	TagWait    Tag = "WAIT"
	TagBegin   Tag = "BEGN"
	TagMoved   Tag = "MOVD"
	TagInvalid Tag = "INVL"
	TagOver    Tag = "OVER"
)

// MaxPayload is the largest accepted payload in bytes.
const MaxPayload = 256

// Outcome is the first field of an OVER frame.
type Outcome byte

const (
	OutcomeWin  Outcome = 'W'
	OutcomeLoss Outcome = 'L'
	OutcomeDraw Outcome = 'D'
)

// Draw subtypes carried by DRAW frames.
const (
	DrawSuggest = 'S'
	DrawAccept  = 'A'
	DrawReject  = 'R'
)

// Corrections produced by the codec itself.
const (
	MsgServerTag    = "User command contains server protocol."
	MsgDrawSubtype  = "S to suggest draw, A to accept, R to reject"
	MsgBadPosition  = "Position must be in the form x,y with {1,2,3} for each"
	MsgExpectedPlay = "Expected PLAY protocol."
)

var (
	// ErrMalformed marks input that violates frame structure, length or
	// field count. Malformed input terminates the connection.
	ErrMalformed = errors.New("malformed frame")

	// ErrFrameTooLong is returned by Reader when a line overflows the
	// frame buffer before a newline is seen.
	ErrFrameTooLong = fmt.Errorf("%w: frame exceeds buffer", ErrMalformed)
)

// Direction tells which side may originate a tag.
type Direction int

const (
	FromClient Direction = iota
	FromServer
)

// CommandKind classifies a parsed client frame.
type CommandKind int

const (
	CmdInvalid CommandKind = iota
	CmdPlay
	CmdSuggestDraw
	CmdAcceptDraw
	CmdRejectDraw
	CmdResign
	CmdMove
)

func (k CommandKind) String() string {
	switch k {
	case CmdInvalid:
		return "invalid"
	case CmdPlay:
		return "play"
	case CmdSuggestDraw:
		return "suggest-draw"
	case CmdAcceptDraw:
		return "accept-draw"
	case CmdRejectDraw:
		return "reject-draw"
	case CmdResign:
		return "resign"
	case CmdMove:
		return "move"
	}
	return "unknown"
}

// Command is a well-formed client frame.
type Command struct {
	Kind CommandKind

	// Name is set for PLAY.
	Name string

	// Role, Col, Row and Position are set for MOVE. Col and Row are 1-based;
	// Position is the raw "h,v" token.
	Role     byte
	Col      int
	Row      int
	Position string

	// Field is the raw DRAW field, kept so the request can be forwarded.
	Field string

	// Reason is the correction text for CmdInvalid.
	Reason string
}

// Frame is a structurally valid frame of any known tag.
type Frame struct {
	Tag    Tag
	Fields []string
}

// schema declares the exact field count of a tag and, for client commands,
// how its fields become a Command.
type schema struct {
	direction Direction
	fields    int
	build     func(fields []string) (Command, error)
}

var schemas = map[Tag]schema{
	TagPlay:   {direction: FromClient, fields: 1, build: buildPlay},
	TagDraw:   {direction: FromClient, fields: 1, build: buildDraw},
	TagResign: {direction: FromClient, fields: 0, build: buildResign},
	TagMove:   {direction: FromClient, fields: 2, build: buildMove},

	TagWait:    {direction: FromServer, fields: 0},
	TagBegin:   {direction: FromServer, fields: 2},
	TagMoved:   {direction: FromServer, fields: 3},
	TagInvalid: {direction: FromServer, fields: 1},
	TagOver:    {direction: FromServer, fields: 2},
}

// IsServerTag reports whether tag is reserved for server events.
func IsServerTag(tag Tag) bool {
	sc, ok := schemas[tag]
	return ok && sc.direction == FromServer
}
