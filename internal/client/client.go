// Package client handles the TCP client and game interaction
package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"ttts/internal/game"
	"ttts/internal/network"
	"ttts/pkg/logger"
)

// Client represents the game client
type Client struct {
	conn       net.Conn
	display    *Display
	input      *InputHandler
	logger     *logger.Logger
	serverAddr string
	name       string

	mu       sync.Mutex
	role     game.Mark
	opponent string
	board    game.Board
	inGame   bool

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new client instance. An empty name is prompted for.
func NewClient(serverAddr, name string, in io.Reader) *Client {
	display := NewDisplay()
	return &Client{
		display:    display,
		input:      NewInputHandler(in, display),
		logger:     logger.Client,
		serverAddr: serverAddr,
		name:       name,
		board:      game.NewBoard(),
		done:       make(chan struct{}),
	}
}

// Start connects, joins matchmaking and runs the command loop until the
// game ends, the server goes away or the user quits.
func (c *Client) Start() error {
	c.display.PrintBanner()

	if c.name == "" {
		name, ok := c.input.GetUsername()
		if !ok {
			return errQuit
		}
		c.name = name
	} else if err := validateName(c.name); err != nil {
		return err
	}

	if err := c.connectToServer(); err != nil {
		c.display.PrintError(fmt.Sprintf("Failed to connect to server: %v", err))
		return err
	}
	defer c.Close()

	go c.messageHandler()

	if err := c.send(network.Play(c.name)); err != nil {
		return fmt.Errorf("failed to send PLAY: %w", err)
	}

	return c.runCommandLoop()
}

// connectToServer establishes TCP connection
func (c *Client) connectToServer() error {
	c.display.PrintInfo("Connecting to server...")

	conn, err := net.Dial("tcp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	c.display.PrintServerStatus("Connected to server")
	c.logger.Info("Connected to server at %s", c.serverAddr)
	return nil
}

func (c *Client) runCommandLoop() error {
	lines := c.input.Lines()
	for {
		select {
		case <-c.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.handleCommand(line); errors.Is(err, errQuit) {
				c.display.PrintInfo("Thanks for playing!")
				return nil
			} else if err != nil {
				return err
			}
		}
	}
}

// handleCommand sends one typed command. Input mistakes are reported locally
// and never reach the server.
func (c *Client) handleCommand(line string) error {
	c.mu.Lock()
	role, inGame := c.role, c.inGame
	c.mu.Unlock()

	frame, err := ParseCommand(line, role)
	switch {
	case errors.Is(err, errQuit):
		return err
	case errors.Is(err, errHelp):
		c.display.PrintHelp()
		return nil
	case err != nil:
		c.display.PrintWarning(err.Error())
		return nil
	}

	if !inGame {
		c.display.PrintWarning("No game in progress yet, waiting for an opponent")
		return nil
	}
	if err := c.send(frame); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// messageHandler processes incoming frames from the server
func (c *Client) messageHandler() {
	defer c.finish()

	reader := network.NewReader(c.conn)
	for {
		line, err := reader.ReadFrame()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Error("Lost connection to server: %v", err)
				c.display.PrintError("Lost connection to server")
			}
			return
		}
		c.logger.Debug("Received frame: %s", line)

		frame, err := network.Decode(line)
		if err != nil {
			c.logger.Error("Error processing server frame: %v", err)
			continue
		}
		if c.processServerFrame(frame) {
			return
		}
	}
}

// processServerFrame applies one event and reports whether the game is over.
func (c *Client) processServerFrame(f network.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch f.Tag {
	case network.TagWait:
		c.display.PrintServerStatus("Waiting for an opponent...")

	case network.TagBegin:
		c.role = game.Mark(f.Fields[0][0])
		c.opponent = f.Fields[1]
		c.board = game.NewBoard()
		c.inGame = true
		c.display.PrintMatch(c.role, c.opponent)
		c.display.PrintBoard(c.board, c.role)
		c.display.PrintHelp()

	case network.TagMoved:
		mark := game.Mark(f.Fields[0][0])
		board, err := game.ParseBoard(f.Fields[2])
		if err != nil {
			c.logger.Error("Bad board from server: %v", err)
			return false
		}
		c.board = board
		c.display.PrintMove(mark, f.Fields[1], mark == c.role)
		c.display.PrintBoard(c.board, c.role)

	case network.TagDraw:
		c.display.PrintDraw(f.Fields[0][0])

	case network.TagInvalid:
		c.display.PrintWarning(f.Fields[0])

	case network.TagOver:
		c.inGame = false
		c.display.PrintOutcome(network.Outcome(f.Fields[0][0]), f.Fields[1])
		return true

	default:
		c.logger.Debug("Unhandled frame tag: %s", f.Tag)
	}
	return false
}

func (c *Client) send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}

func (c *Client) finish() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Close closes the client connection
func (c *Client) Close() error {
	c.finish()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
