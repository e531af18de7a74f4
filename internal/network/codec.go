package network

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes one client line (without its trailing newline) into a Command.
//
// A non-nil error always wraps ErrMalformed. Well-formed frames that are
// semantically wrong come back as a CmdInvalid command with a Reason.
func Parse(line string) (Command, error) {
	tag, payload, err := splitFrame(line)
	if err != nil {
		return Command{}, err
	}

	sc, ok := schemas[tag]
	if !ok {
		return Command{}, malformed("command not recognized")
	}
	if sc.direction == FromServer {
		return invalid(MsgServerTag), nil
	}

	fields, err := splitFields(tag, payload, sc.fields)
	if err != nil {
		return Command{}, err
	}
	return sc.build(fields)
}

// Decode validates a frame of any known tag and returns its fields. The
// client uses it to read server events.
func Decode(line string) (Frame, error) {
	tag, payload, err := splitFrame(line)
	if err != nil {
		return Frame{}, err
	}
	sc, ok := schemas[tag]
	if !ok {
		return Frame{}, malformed("command not recognized")
	}
	fields, err := splitFields(tag, payload, sc.fields)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Tag: tag, Fields: fields}, nil
}

// Encode renders a frame. LENGTH is always derived from the fields.
func Encode(tag Tag, fields ...string) []byte {
	var payload strings.Builder
	for _, f := range fields {
		payload.WriteString(f)
		payload.WriteByte('|')
	}

	var b strings.Builder
	b.Grow(len(tag) + payload.Len() + 8)
	b.WriteString(string(tag))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(payload.Len()))
	b.WriteByte('|')
	b.WriteString(payload.String())
	b.WriteByte('\n')
	return []byte(b.String())
}

// Server events

func Wait() []byte { return Encode(TagWait) }

func Begin(role byte, opponent string) []byte {
	return Encode(TagBegin, string(role), opponent)
}

func Moved(mark byte, position, board string) []byte {
	return Encode(TagMoved, string(mark), position, board)
}

func Invalid(message string) []byte { return Encode(TagInvalid, message) }

func Over(outcome Outcome, message string) []byte {
	return Encode(TagOver, string(outcome), message)
}

// Client commands

func Play(name string) []byte { return Encode(TagPlay, name) }

func Draw(field string) []byte { return Encode(TagDraw, field) }

func Resign() []byte { return Encode(TagResign) }

func Move(role byte, col, row int) []byte {
	return Encode(TagMove, string(role), Position(col, row))
}

// Position renders the "h,v" token for a 1-based column and row.
func Position(col, row int) string {
	return strconv.Itoa(col) + "," + strconv.Itoa(row)
}

func splitFrame(line string) (Tag, string, error) {
	tag, rest, ok := strings.Cut(line, "|")
	if !ok || tag == "" {
		return "", "", malformed("missing tag")
	}
	lengthToken, payload, ok := strings.Cut(rest, "|")
	if !ok || lengthToken == "" {
		return "", "", malformed("missing length")
	}
	declared, err := strconv.Atoi(lengthToken)
	if err != nil || declared != len(payload) || len(payload) > MaxPayload {
		return "", "", malformed("bad length")
	}
	return Tag(tag), payload, nil
}

func splitFields(tag Tag, payload string, want int) ([]string, error) {
	if want == 0 {
		if payload != "" {
			return nil, malformed("unexpected data past the last delimiter")
		}
		return nil, nil
	}
	if !strings.HasSuffix(payload, "|") {
		return nil, malformed("unexpected data past the last delimiter")
	}
	fields := strings.Split(payload[:len(payload)-1], "|")
	if len(fields) != want {
		return nil, malformed(fmt.Sprintf("incorrect number of fields for %s", tag))
	}
	for _, f := range fields {
		if f == "" {
			return nil, malformed(fmt.Sprintf("empty field in %s", tag))
		}
	}
	return fields, nil
}

func buildPlay(fields []string) (Command, error) {
	return Command{Kind: CmdPlay, Name: fields[0]}, nil
}

func buildDraw(fields []string) (Command, error) {
	cmd := Command{Field: fields[0]}
	switch fields[0][0] {
	case DrawSuggest:
		cmd.Kind = CmdSuggestDraw
	case DrawAccept:
		cmd.Kind = CmdAcceptDraw
	case DrawReject:
		cmd.Kind = CmdRejectDraw
	default:
		return invalid(MsgDrawSubtype), nil
	}
	return cmd, nil
}

func buildResign([]string) (Command, error) {
	return Command{Kind: CmdResign}, nil
}

func buildMove(fields []string) (Command, error) {
	role := fields[0]
	if len(role) != 1 || (role[0] != 'X' && role[0] != 'O') {
		return Command{}, malformed("selected role other than X or O")
	}

	pos := fields[1]
	if len(pos) != 3 || pos[1] != ',' || !inRange(pos[0]) || !inRange(pos[2]) {
		return invalid(MsgBadPosition), nil
	}
	return Command{
		Kind:     CmdMove,
		Role:     role[0],
		Col:      int(pos[0] - '0'),
		Row:      int(pos[2] - '0'),
		Position: pos,
	}, nil
}

func inRange(c byte) bool { return c >= '1' && c <= '3' }

func invalid(reason string) Command {
	return Command{Kind: CmdInvalid, Reason: reason}
}

func malformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, detail)
}
