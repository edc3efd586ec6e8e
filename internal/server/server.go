package server

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/moonlightdb/moonlight/internal/pubsub"
	"github.com/moonlightdb/moonlight/internal/resp"
	"go.uber.org/zap"
)

// Server owns the accept loop and the live peer registry, generalized out
// of a bare main so it can be driven by a test without a real process or
// listener lifecycle to manage by hand.
type Server struct {
	engine *Engine
	bus    *pubsub.Bus
	logger *zap.Logger

	mu    sync.RWMutex
	peers map[uint64]*Peer

	wg sync.WaitGroup
}

func NewServer(engine *Engine, bus *pubsub.Bus, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		bus:    bus,
		logger: logger,
		peers:  make(map[uint64]*Peer),
	}
}

// Serve accepts connections from listener until it's closed, handling each
// on its own goroutine and blocking until every connection it spawned has
// returned.
func (s *Server) Serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept error", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
	s.wg.Wait()
}

// handleConn runs one connection's read/dispatch/reply loop until the
// client disconnects or SHUTDOWN tears the process down.
func (s *Server) handleConn(conn net.Conn) {
	peer := NewPeer(conn)

	s.mu.Lock()
	s.peers[peer.ID()] = peer
	s.mu.Unlock()
	s.engine.ClientConnected()

	if s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("client connected", zap.String("addr", conn.RemoteAddr().String()))
	}

	defer func() {
		s.bus.UnsubscribeAll(peer)
		s.mu.Lock()
		delete(s.peers, peer.ID())
		s.mu.Unlock()
		s.engine.ClientDisconnected()
		peer.Close() //nolint:errcheck
		if s.logger.Core().Enabled(zap.DebugLevel) {
			s.logger.Debug("client disconnected", zap.String("addr", conn.RemoteAddr().String()))
		}
	}()

	for {
		cmdValue, err := peer.ReadCommand()
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("read command failed", zap.Error(err))
			}
			return
		}

		if cmdValue.Type != resp.TypeArray {
			s.logger.Error("invalid request type")
			continue
		}
		if len(cmdValue.Array) == 0 {
			continue
		}

		commandName := strings.ToUpper(string(cmdValue.Array[0].String))
		args := cmdValue.Array[1:]

		result := s.engine.Execute(peer, commandName, args)

		// SHUTDOWN leaves no reply: the connection (and the process) are
		// already on their way down by the time Execute returns.
		if result.Type == 0 {
			return
		}

		if err = peer.Send(result); err != nil {
			s.logger.Error("error writing response", zap.Error(err))
			return
		}

		if peer.InputBuffered() == 0 {
			if err := peer.Flush(); err != nil {
				return
			}
		}
	}
}

// Send pushes v to the connection identified by connID, if it's still
// live. This is the side channel a future out-of-process pub/sub
// transport would use instead of pubsub.Bus calling straight into
// *Peer; today *Peer already satisfies pubsub.Subscriber directly, so
// Bus.Publish delivers without going through Send. Nothing else in this
// repository calls Send; it is the lookup-by-ID path to a specific peer.
func (s *Server) Send(connID uint64, v resp.Value) error {
	s.mu.RLock()
	peer, ok := s.peers[connID]
	s.mu.RUnlock()
	if !ok {
		return errors.New("no such connection")
	}
	return peer.Send(v)
}
