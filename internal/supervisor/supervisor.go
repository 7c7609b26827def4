// Package supervisor wires the Registry, Command Dispatcher, TCP Server,
// and Metric Sampler into one daemon lifecycle: bind, serve, sample,
// shut down. It is grounded on the teacher's Daemon.Run start sequence
// and Daemon.shutdown (daemon/daemon.go), generalized from the teacher's
// Unix-socket-plus-auto-restart daemon down to the spec's loopback-TCP,
// manual-lifecycle supervisor (no auto-restart: an explicit Non-goal).
package supervisor

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/7c/pypm/internal/dispatcher"
	"github.com/7c/pypm/internal/registry"
	"github.com/7c/pypm/internal/sampler"
	"github.com/7c/pypm/internal/server"
)

// Config bundles the resolved daemon settings the Supervisor needs.
type Config struct {
	Host         string
	Port         int
	LogDir       string
	LogFrequency float64
}

// Supervisor owns the daemon's long-running tasks and their shared
// shutdown flag.
type Supervisor struct {
	cfg      Config
	reg      *registry.Registry
	listener net.Listener
	server   *server.Server
	sampler  *sampler.Sampler
	shutdown atomic.Bool
}

// New builds a Supervisor. It does not bind a listener yet; call Run.
func New(cfg Config) *Supervisor {
	reg := registry.New()
	return &Supervisor{cfg: cfg, reg: reg}
}

// Registry exposes the supervisor's process registry, e.g. for
// pre-configured startup processes.
func (s *Supervisor) Registry() *registry.Registry { return s.reg }

// Run binds the loopback listener, then blocks serving requests and
// sampling metrics until a "stop" request sets the shutdown flag. It
// returns after every active child has been killed and the listener
// released.
func (s *Supervisor) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.listener = ln

	d := dispatcher.New(s.reg, s.cfg.Host, s.cfg.Port, &s.shutdown)
	s.server = server.New(ln, d, &s.shutdown)
	s.sampler = sampler.New(s.reg, s.cfg.LogDir, s.cfg.LogFrequency)

	slog.Info("pypm daemon started", "addr", addr, "pid", os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		slog.Info("received shutdown signal")
		s.Shutdown()
	}()

	go s.sampler.Run()

	s.server.Serve()

	s.cleanup()
	return nil
}

// cleanup kills every active child and releases the sampler and
// listener. It runs once, after Serve returns (which only happens once
// the shutdown flag is set: either right after the "stop" request's own
// connection closes, or after Unblock's self-connect releases Accept).
func (s *Supervisor) cleanup() {
	s.sampler.Stop()

	for _, p := range s.reg.List() {
		if p.PollActive() {
			p.Kill()
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for _, p := range s.reg.List() {
		for p.PollActive() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}

	s.listener.Close()
	slog.Info("pypm daemon stopped")
}

// Unblock opens a throwaway connection to the daemon's own listener and
// writes a single space byte, releasing a blocked Accept call so the
// server's loop can observe the shutdown flag and return. Per the spec
// this is the only way to interrupt a blocking accept on shutdown.
func (s *Supervisor) Unblock() {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.Write([]byte(" "))
	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	conn.Read(buf)
}

// Shutdown sets the shutdown flag and unblocks the accept loop. It is
// idempotent: calling it twice is harmless, matching the spec's
// "stop twice" scenario where the second attempt fails only because the
// daemon is no longer listening, not because Shutdown itself errors.
func (s *Supervisor) Shutdown() {
	s.shutdown.Store(true)
	s.Unblock()
}
