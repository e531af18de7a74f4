// Package client handles user input validation and processing
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ttts/internal/game"
	"ttts/internal/network"
)

var (
	errQuit = errors.New("user quit")
	errHelp = errors.New("help requested")
)

// InputHandler manages user input for the game
type InputHandler struct {
	scanner *bufio.Scanner
	display *Display
}

// NewInputHandler creates a new input handler
func NewInputHandler(in io.Reader, display *Display) *InputHandler {
	return &InputHandler{
		scanner: bufio.NewScanner(in),
		display: display,
	}
}

// GetUsername prompts until a usable name is entered. It returns false if
// input ends first.
func (ih *InputHandler) GetUsername() (string, bool) {
	for {
		fmt.Fprint(ih.display.out, "Enter your name: ")

		if !ih.scanner.Scan() {
			return "", false
		}

		name := strings.TrimSpace(ih.scanner.Text())
		if err := validateName(name); err != nil {
			ih.display.PrintWarning(err.Error())
			continue
		}
		return name, true
	}
}

// Lines streams trimmed, non-empty input lines until input ends.
func (ih *InputHandler) Lines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for ih.scanner.Scan() {
			if line := strings.TrimSpace(ih.scanner.Text()); line != "" {
				lines <- line
			}
		}
	}()
	return lines
}

// validateName rejects names the protocol cannot carry.
func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("name cannot be empty")
	case strings.ContainsAny(name, "|\n"):
		return errors.New("name cannot contain '|' or a newline")
	case len(name)+1 > network.MaxPayload:
		return fmt.Errorf("name must be shorter than %d bytes", network.MaxPayload)
	}
	return nil
}

// ParseCommand turns a typed command into the frame to send. role is the
// mark assigned by the server and is filled into MOVE frames.
func ParseCommand(line string, role game.Mark) ([]byte, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "move", "m":
		col, row, err := parsePosition(arg)
		if err != nil {
			return nil, err
		}
		return network.Move(byte(role), col, row), nil
	case "draw", "d":
		switch strings.ToLower(arg) {
		case "s", "suggest":
			return network.Draw(string(network.DrawSuggest)), nil
		case "a", "accept":
			return network.Draw(string(network.DrawAccept)), nil
		case "r", "reject":
			return network.Draw(string(network.DrawReject)), nil
		}
		return nil, errors.New("usage: draw s|a|r")
	case "resign":
		return network.Resign(), nil
	case "help", "?":
		return nil, errHelp
	case "quit", "exit":
		return nil, errQuit
	}
	return nil, fmt.Errorf("unknown command %q (type 'help')", verb)
}

// parsePosition reads "h,v" with both coordinates in 1..3.
func parsePosition(s string) (int, int, error) {
	h, v, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.New("usage: move h,v")
	}
	col, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || col < 1 || col > 3 {
		return 0, 0, fmt.Errorf("column must be 1, 2 or 3, got %q", h)
	}
	row, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || row < 1 || row > 3 {
		return 0, 0, fmt.Errorf("row must be 1, 2 or 3, got %q", v)
	}
	return col, row, nil
}
