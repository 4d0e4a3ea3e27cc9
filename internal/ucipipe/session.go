// Package ucipipe drives a single network engine session: a reader
// task that pumps lines from the socket into the GUI-facing pipe, a
// writer task gated until the on-socket handshake completes, and the
// startup watchdog that guards against a server that never speaks UCI.
package ucipipe

import (
	"bufio"
	"context"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidar808/droidfish-netengine/internal/constants"
	"github.com/vidar808/droidfish-netengine/internal/linepipe"
	"github.com/vidar808/droidfish-netengine/internal/ucioptions"
)

// Reporter receives out-of-band error notifications, mirroring the
// reference client's Report.reportError callback.
type Reporter interface {
	ReportError(message string)
}

// Session pumps UCI traffic between a raw connection and a pair of
// line pipes (guiToEngine, engineToGui), gated by an on-socket
// handshake performed before Start is called.
type Session struct {
	conn         net.Conn
	reader       *bufio.Reader
	guiToEngine  *linepipe.Pipe
	engineToGui  *linepipe.Pipe
	reporter     Reporter
	logger       *log.Logger
	options      *ucioptions.Registry

	startedOk       atomic.Bool
	running         atomic.Bool
	errored         atomic.Bool
	shutdownReqested atomic.Bool
	firstConsumed   atomic.Bool

	mu           sync.Mutex
	lastPosition string
	lastGo       string

	wg sync.WaitGroup
}

// New wires a session around an already-handshaken connection.
// injectedLine, when non-empty, is delivered to engineToGui before any
// bytes are read off reader, restoring a line the handshake had to
// consume to look for AUTH_REQUIRED but that turned out to be normal
// UCI output.
func New(conn net.Conn, reader *bufio.Reader, injectedLine string, reporter Reporter, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		conn:        conn,
		reader:      reader,
		guiToEngine: linepipe.New(),
		engineToGui: linepipe.New(),
		reporter:    reporter,
		logger:      logger,
	}
	if injectedLine != "" {
		s.engineToGui.Push(strings.TrimRight(injectedLine, "\r\n"))
		s.startedOk.Store(true)
		s.running.Store(true)
		// The handshake already read and cleared this line for
		// AUTH_REQUIRED before handing it back for re-injection; the
		// next line readLoop pulls off the socket is not the session's
		// genuine first line and must not be treated as one.
		s.firstConsumed.Store(true)
	}
	return s
}

// SetOptionsRegistry attaches a registry that readLoop populates as
// the engine declares options during startup. It must be called
// before Start; a nil registry (the default) disables this bookkeeping
// entirely.
func (s *Session) SetOptionsRegistry(r *ucioptions.Registry) { s.options = r }

// GuiToEngine is the pipe the facade writes GUI-originated UCI
// commands into.
func (s *Session) GuiToEngine() *linepipe.Pipe { return s.guiToEngine }

// EngineToGui is the pipe the facade reads engine-originated UCI
// output from.
func (s *Session) EngineToGui() *linepipe.Pipe { return s.engineToGui }

// Start launches the reader and writer tasks. The writer needs no
// runtime gate — the same race the reference client's
// authNegotiationDone flag guards against is excluded by call order:
// the handshake having already completed by the time New is called
// means there is nothing left to wait for, so the writer opens
// immediately. Start returns once both tasks are running; it does not
// block for the session's lifetime.
func (s *Session) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.readLoop(ctx)
	go s.writeLoop(ctx)
}

// Wait blocks until both the reader and writer tasks have exited.
func (s *Session) Wait() { s.wg.Wait() }

// Shutdown requests a graceful stop: pending writes are abandoned, a
// "quit" line is sent best-effort, and the socket is closed. IO errors
// observed after Shutdown has been called are suppressed rather than
// reported, since they are expected once the peer end goes away.
func (s *Session) Shutdown() {
	s.shutdownReqested.Store(true)
	s.running.Store(false)
	// Bound the best-effort quit so a peer that is not reading cannot
	// block Shutdown.
	s.conn.SetWriteDeadline(time.Now().Add(constants.Duration1Second))
	s.conn.Write([]byte("quit\n"))
	s.conn.Close()
	s.guiToEngine.Close()
	s.engineToGui.Close()
}

// StartedOk reports whether the engine has produced its first line
// (injected or read off the socket).
func (s *Session) StartedOk() bool { return s.startedOk.Load() }

// Running reports whether the session is considered live: its first
// line (injected or read off the socket) has arrived and Shutdown has
// not yet been called.
func (s *Session) Running() bool { return s.running.Load() }

// Errored reports whether the session has entered an error state.
func (s *Session) Errored() bool { return s.errored.Load() }

// WatchStartup fails the session and reports uci_protocol_error if the
// engine has not produced its first line within constants.StartupWatchdogTimeout.
func (s *Session) WatchStartup(ctx context.Context) {
	timer := time.NewTimer(constants.StartupWatchdogTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		if !s.startedOk.Load() && !s.shutdownReqested.Load() && !s.errored.Load() {
			s.errored.Store(true)
			s.report("engine did not respond within the startup window")
		}
	case <-ctx.Done():
	}
}

func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.engineToGui.Close()

	first := !s.firstConsumed.Load()
	for {
		line, err := s.reader.ReadString('\n')
		if line != "" {
			trimmed := strings.TrimRight(line, "\r\n")
			if strings.HasPrefix(strings.TrimSpace(trimmed), "AUTH_REQUIRED") {
				s.errored.Store(true)
				s.report("server requires authentication but the client skipped it — check the connection descriptor's auth settings")
				return
			}
			s.engineToGui.Push(trimmed)
			if s.options != nil && strings.HasPrefix(trimmed, "option name") {
				if opt, ok := ucioptions.ParseLine(trimmed); ok {
					s.options.Add(ucioptions.ApplyVisibility(opt))
				}
			}
			if first {
				s.startedOk.Store(true)
				s.running.Store(true)
				first = false
			}
		}
		if err != nil {
			if !s.shutdownReqested.Load() {
				s.errored.Store(true)
				if s.startedOk.Load() {
					s.report("engine connection terminated")
				} else {
					s.report("failed to start engine")
				}
			}
			return
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.running.Store(false)
		s.conn.Close()
	}()

	for {
		line, ok := s.guiToEngine.Read(linepipe.Forever)
		if !ok {
			return // pipe closed, e.g. via Shutdown
		}

		s.mu.Lock()
		if strings.HasPrefix(line, "position ") {
			s.lastPosition = line
		} else if strings.HasPrefix(line, "go ") {
			s.lastGo = line
		}
		s.mu.Unlock()

		if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
			if s.running.Load() && !s.shutdownReqested.Load() {
				s.errored.Store(true)
				s.report(err.Error())
			}
			return
		}
	}
}

// LastPosition and LastGo return the most recently written position
// and go commands, kept for diagnostic display. The reference client
// tracks these "for potential reconnection" but never acts on them —
// this client preserves the bookkeeping and the same non-goal: no
// automatic replay on reconnect.
func (s *Session) LastPosition() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPosition
}

func (s *Session) LastGo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGo
}

func (s *Session) report(message string) {
	if s.reporter != nil {
		s.reporter.ReportError(message)
	}
}
