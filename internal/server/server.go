// Package server implements the daemon's loopback TCP listener: one
// connection per request, synchronous read→dispatch→write→close. It is
// grounded on the teacher's Daemon.acceptLoop/handleConnection
// (daemon/daemon.go), generalized from the teacher's persistent
// line-scanning Unix-socket connection to the spec's single-shot,
// single-read TCP request/response cycle.
package server

import (
	"log/slog"
	"net"
	"strings"
	"sync/atomic"

	"github.com/7c/pypm/internal/dispatcher"
	"github.com/7c/pypm/internal/protocol"
)

// Server accepts one connection at a time and dispatches its single
// request line synchronously before closing it.
type Server struct {
	listener   net.Listener
	dispatcher *dispatcher.Dispatcher
	shutdown   *atomic.Bool
}

// New wraps an already-bound listener. Binding (and its PortInUse
// failure) is the caller's responsibility, per the spec's "fails fast at
// bind time" requirement living in the Supervisor's start sequence.
func New(listener net.Listener, d *dispatcher.Dispatcher, shutdown *atomic.Bool) *Server {
	return &Server{listener: listener, dispatcher: d, shutdown: shutdown}
}

// Serve runs the accept loop until the shutdown flag is observed. A
// "stop" request sets that flag from inside Dispatch while its own
// connection is still being handled, so the loop simply checks the flag
// right after that connection closes and returns without looping back
// into Accept. When shutdown instead originates elsewhere (a signal) and
// Accept is already blocked waiting for a connection, whoever sets the
// flag must release it with the self-connect trick described in §4.4 —
// see Supervisor.Unblock.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return
			}
			slog.Error("accept error", "error", err)
			continue
		}
		s.handleConnection(conn)
		if s.shutdown.Load() {
			return
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, protocol.MaxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	line := strings.TrimRight(string(buf[:n]), "\r\n")
	if strings.TrimSpace(line) == "" {
		// A shutdown self-connect writes a single space byte purely to
		// unblock Accept; it expects no reply processing.
		return
	}

	frame := s.dispatcher.Dispatch(line)
	conn.Write(frame)
}
