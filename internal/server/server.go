// Package server implements the TCP game server: accept loop, handshake,
// matchmaking and the per-connection game loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"ttts/internal/config"
	"ttts/internal/game"
	"ttts/internal/network"
	"ttts/pkg/logger"
)

// MsgNameTaken is sent before closing a connection whose name is in use.
const MsgNameTaken = "Username is taken"

var errHandshake = errors.New("handshake rejected")

// Server represents the TCP server
type Server struct {
	address      string
	idleTimeout  time.Duration
	writeTimeout time.Duration
	listener     net.Listener

	names    *NameRegistry
	room     *WaitingRoom
	sessions *SessionStore

	mu        sync.Mutex
	clients   map[string]*Conn
	isRunning atomic.Bool
	handlers  sync.WaitGroup

	logger *logger.Logger
}

// NewServer creates a new TCP server instance
func NewServer(cfg *config.Config, log *logger.Logger) *Server {
	sessions := NewSessionStore()
	return &Server{
		address:      cfg.Address(),
		idleTimeout:  cfg.IdleTimeout,
		writeTimeout: cfg.WriteTimeout,
		names:        NewNameRegistry(),
		room:         NewWaitingRoom(sessions, log),
		sessions:     sessions,
		clients:      make(map[string]*Conn),
		logger:       log,
	}
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	host, port, err := net.SplitHostPort(s.address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s.address, err)
	}
	ln, err := Listen(context.Background(), host, port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, one goroutine per client. It returns nil
// once Stop closes the listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.isRunning.Store(true)
	s.logger.Info("Server started and listening on %s", ln.Addr())

	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.isRunning.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Failed to accept connection: %v", err)
			continue
		}

		s.handlers.Add(1)
		go s.handleClient(nc)
	}
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting, wakes parked clients, ends every live session without
// further frames and waits for all connection goroutines to exit. Sockets
// are closed before sessions are shut down so a writer stuck on a client
// that stopped reading releases its session.
func (s *Server) Stop() error {
	if !s.isRunning.Swap(false) {
		return nil
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	var err error
	if ln != nil {
		err = ln.Close()
	}

	s.room.Close()

	s.mu.Lock()
	for _, c := range s.clients {
		c.Cancel()
		c.Close()
	}
	s.mu.Unlock()

	for _, id := range s.sessions.IDs() {
		session, _, ok := s.sessions.Get(id)
		if ok && session.Shutdown() {
			s.teardown(session)
		}
	}

	s.handlers.Wait()
	s.logger.Info("Server stopped")
	return err
}

// handleClient manages individual client connections
func (s *Server) handleClient(nc net.Conn) {
	defer s.handlers.Done()

	c := newConn(nc, s.idleTimeout, s.writeTimeout)
	log := s.logger.With("conn", c.ID, "remote", c.Addr)
	log.Info("New client connected")

	s.mu.Lock()
	if !s.isRunning.Load() {
		s.mu.Unlock()
		c.Close()
		return
	}
	s.clients[c.ID] = c
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.ID)
		s.mu.Unlock()
		log.Info("Client disconnected")
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Connection handler panicked: %v", r)
			if c.session != nil && c.session.Abandon(c.index, false) {
				s.teardown(c.session)
			}
			c.Close()
		}
	}()

	session, err := s.handshake(c, log)
	if err != nil {
		log.Info("Handshake ended: %v", err)
		c.Close()
		return
	}

	log = log.With("name", c.name, "role", c.Role().String())
	s.play(c, session, log)
}

// handshake reads the PLAY frame, reserves the name and waits for a partner.
func (s *Server) handshake(c *Conn, log *logger.Logger) (*game.Session, error) {
	line, err := c.ReadFrame()
	if errors.Is(err, network.ErrMalformed) {
		log.Warn("Malformed handshake: %v", err)
		c.Send(network.Invalid(network.MsgExpectedPlay))
		return nil, errHandshake
	}
	if err != nil {
		return nil, err
	}

	cmd, err := network.Parse(line)
	if err != nil || cmd.Kind != network.CmdPlay {
		if err != nil {
			log.Warn("Malformed handshake: %v", err)
		}
		c.Send(network.Invalid(network.MsgExpectedPlay))
		return nil, errHandshake
	}

	if err := s.names.Reserve(cmd.Name); err != nil {
		c.Send(network.Invalid(MsgNameTaken))
		return nil, fmt.Errorf("%w: %q", err, cmd.Name)
	}
	c.name = cmd.Name
	log.Info("Player %s joined", c.name)

	if err := c.Send(network.Wait()); err != nil {
		s.names.Release(c.name)
		return nil, err
	}

	session, err := s.room.Enter(c)
	if err != nil {
		s.names.Release(c.name)
		return nil, err
	}
	return session, nil
}

// play feeds frames from c into its session until the session ends or the
// connection is cancelled by its peer.
func (s *Server) play(c *Conn, session *game.Session, log *logger.Logger) {
	for {
		line, err := c.ReadFrame()
		if errors.Is(err, errCancelled) {
			return
		}
		if err != nil {
			malformed := errors.Is(err, network.ErrMalformed)
			if malformed {
				log.Warn("Malformed input: %v", err)
			} else {
				log.Info("Read failed: %v", err)
			}
			if session.Abandon(c.index, malformed) {
				s.teardown(session)
			}
			return
		}

		cmd, err := network.Parse(line)
		if err != nil {
			log.Warn("Malformed input %q: %v", line, err)
			if session.Abandon(c.index, true) {
				s.teardown(session)
			}
			return
		}

		over, err := session.Process(c.index, cmd)
		if errors.Is(err, game.ErrSessionOver) {
			return
		}
		if err != nil {
			log.Error("Processing %s failed: %v", cmd.Kind, err)
			continue
		}
		if over {
			s.teardown(session)
			return
		}
	}
}

// teardown runs once per session, by whichever goroutine ended it. The peer
// is cancelled before sockets close so it wakes into errCancelled.
func (s *Server) teardown(session *game.Session) {
	_, conns, ok := s.sessions.Get(session.ID())
	if !ok || !s.sessions.Remove(session.ID()) {
		return
	}

	for _, c := range conns {
		c.Cancel()
	}
	for _, c := range conns {
		c.Close()
		s.names.Release(c.name)
	}

	reason, winner := session.Result()
	if winner >= 0 {
		s.logger.Info("Session %s ended (%s), winner %s", session.ID(), reason, conns[winner].name)
	} else {
		s.logger.Info("Session %s ended (%s)", session.ID(), reason)
	}
}

// Names exposes the username registry.
func (s *Server) Names() *NameRegistry { return s.names }

// Room exposes the waiting room.
func (s *Server) Room() *WaitingRoom { return s.room }

// Sessions exposes the live session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }
