// Package facade exposes the single public contract the rest of an
// application drives a network engine session through: start, read a
// line, write a line, apply host-configured options, check whether
// those options still match, and shut down.
package facade

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
	"github.com/vidar808/droidfish-netengine/internal/events"
	"github.com/vidar808/droidfish-netengine/internal/handshake"
	"github.com/vidar808/droidfish-netengine/internal/transport"
	"github.com/vidar808/droidfish-netengine/internal/ucioptions"
	"github.com/vidar808/droidfish-netengine/internal/ucipipe"
)

// HostConfig is the subset of host-side settings the engine needs at
// initialization time to decide whether it can keep running unchanged
// or must be restarted, mirroring EngineOptions in the system this
// facade replaces.
type HostConfig struct {
	NetworkID     string
	HashMB        int64
	SyzygyPath    string
	GaviotaTbPath string
}

// Reporter receives out-of-band error notifications.
type Reporter interface {
	ReportError(message string)
}

// Engine is a running (or not-yet-started) network engine session.
type Engine struct {
	descriptor endpoint.Descriptor
	reporter   Reporter
	logger     *log.Logger
	bus        *events.Bus
	sessionID  string

	mu          sync.Mutex
	session     *ucipipe.Session
	options     *ucioptions.Registry
	hostConfig  HostConfig
	optionsInit bool
	networkID   string
}

// New creates an Engine bound to d. Nothing is dialed until Start is
// called. Every Engine is stamped with its own correlation ID so log
// lines and diagnostic events from concurrently running sessions can
// be told apart.
func New(d endpoint.Descriptor, reporter Reporter, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		descriptor: d,
		reporter:   reporter,
		logger:     logger,
		bus:        events.NewBus(),
		options:    ucioptions.NewRegistry(),
		networkID:  d.NetworkID,
		sessionID:  uuid.NewString(),
	}
}

// SessionID returns the correlation ID this Engine stamps on its log
// lines and diagnostic events.
func (e *Engine) SessionID() string { return e.sessionID }

func (e *Engine) publish(phase events.Phase, detail string) {
	events.Publish(e.bus, events.SessionStateTopic, events.SessionState{
		SessionID: e.sessionID,
		Phase:     phase,
		Detail:    detail,
	})
}

// Diagnostics returns the event bus session lifecycle and connection
// diagnostics are published to.
func (e *Engine) Diagnostics() *events.Bus { return e.bus }

// Start dials the configured endpoint, runs the handshake, and begins
// pumping UCI traffic. It returns once the session's reader/writer
// tasks are running; it does not wait for the engine's first line —
// ReadLine delivers that line once it arrives.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Printf("facade[%s]: connecting to %s", e.sessionID, e.descriptor.Host)
	e.publish(events.PhaseConnecting, "")

	conn, err := transport.Select(ctx, e.descriptor, e.logger)
	if err != nil {
		e.publish(events.PhaseFailed, err.Error())
		e.reportOnce(err.Error())
		return fmt.Errorf("facade: connect: %w", err)
	}

	e.publish(events.PhaseHandshaking, "")
	result, err := handshake.Run(conn, e.descriptor, e.logger)
	if err != nil {
		conn.Close()
		e.publish(events.PhaseFailed, err.Error())
		e.reportOnce(err.Error())
		return fmt.Errorf("facade: handshake: %w", err)
	}

	sess := ucipipe.New(conn, result.Reader, result.InjectedLine, reporterAdapter{e}, e.logger)
	e.mu.Lock()
	sess.SetOptionsRegistry(e.options)
	e.session = sess
	e.mu.Unlock()

	sess.Start(ctx)
	go sess.WatchStartup(ctx)

	e.logger.Printf("facade[%s]: running", e.sessionID)
	e.publish(events.PhaseRunning, "")
	return nil
}

// ReadLine returns the next line the engine produced, waiting up to
// timeout. It returns ("", false) once the session has closed. A
// non-positive timeout other than linepipe.Forever polls once.
func (e *Engine) ReadLine(timeout time.Duration) (string, bool) {
	sess := e.currentSession()
	if sess == nil {
		return "", false
	}
	return sess.EngineToGui().Read(timeout)
}

// WriteLine queues a line for delivery to the engine.
func (e *Engine) WriteLine(line string) {
	sess := e.currentSession()
	if sess == nil {
		return
	}
	sess.GuiToEngine().Push(line)
}

// InitOptions records the host configuration this engine was started
// with, applying Hash/SyzygyPath/GaviotaTbPath the way the host
// manages them rather than surfacing them as user-editable, and pushes
// the corresponding setoption lines to the engine.
func (e *Engine) InitOptions(cfg HostConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hostConfig = cfg
	e.networkID = cfg.NetworkID

	e.applyHostOption("Hash", fmt.Sprint(cfg.HashMB), func() ucioptions.Option {
		return ucioptions.NewSpinOption("Hash", 1, 1<<20, cfg.HashMB)
	})
	e.applyHostOption("SyzygyPath", cfg.SyzygyPath, func() ucioptions.Option {
		return ucioptions.NewStringOption("SyzygyPath", cfg.SyzygyPath)
	})
	e.applyHostOption("GaviotaTbPath", cfg.GaviotaTbPath, func() ucioptions.Option {
		return ucioptions.NewStringOption("GaviotaTbPath", cfg.GaviotaTbPath)
	})

	e.optionsInit = true
}

// applyHostOption records value under name in the registry (creating
// the option via newOpt if it isn't already present) and, if the value
// is new, sends the matching setoption line to a running session.
// Callers must hold e.mu.
func (e *Engine) applyHostOption(name, value string, newOpt func() ucioptions.Option) {
	changed := true
	if opt, ok := e.options.Get(name); ok {
		changed = opt.SetFromString(value)
	} else {
		e.options.Add(ucioptions.ApplyVisibility(newOpt()))
	}
	if !changed {
		return
	}
	if e.session == nil {
		return
	}
	e.session.GuiToEngine().Push(fmt.Sprintf("setoption name %s value %s", name, value))
}

// OptionsOK reports whether cfg still matches the configuration this
// engine was initialized with — a network identity change or a
// changed Hash/tablebase path means the session must be torn down and
// restarted rather than reused.
func (e *Engine) OptionsOK(cfg HostConfig) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && e.session.Errored() {
		return false
	}
	if !e.optionsInit {
		return true
	}
	if e.networkID != cfg.NetworkID {
		return false
	}
	if e.hostConfig.HashMB != cfg.HashMB {
		return false
	}
	if _, ok := e.options.Get("gaviotatbpath"); ok && e.hostConfig.GaviotaTbPath != cfg.GaviotaTbPath {
		return false
	}
	if _, ok := e.options.Get("syzygypath"); ok && e.hostConfig.SyzygyPath != cfg.SyzygyPath {
		return false
	}
	return true
}

// Options returns the option registry, primarily for editable-option
// UI surfacing.
func (e *Engine) Options() *ucioptions.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options
}

// Shutdown tears the session down, suppressing any further error
// reports — an IO error observed while shutting down is expected, not
// a failure worth surfacing.
func (e *Engine) Shutdown() {
	sess := e.currentSession()
	if sess == nil {
		return
	}
	sess.Shutdown()
	sess.Wait()
	e.publish(events.PhaseClosed, "")
}

func (e *Engine) currentSession() *ucipipe.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) reportOnce(message string) {
	if e.reporter != nil {
		e.reporter.ReportError(message)
	}
}

// reporterAdapter bridges ucipipe.Reporter to the facade's own
// Reporter interface and republishes error reports as diagnostic
// events.
type reporterAdapter struct{ e *Engine }

func (r reporterAdapter) ReportError(message string) {
	r.e.publish(events.PhaseFailed, message)
	if r.e.reporter != nil {
		r.e.reporter.ReportError(message)
	}
}
