// Package linepipe implements a thread-safe, FIFO line queue with a
// timed read and close-wakes-reader semantics. It is the shared
// building block underneath both process-backed and socket-backed
// engines: the GUI-facing side of a network session and the local
// engine pipe use the exact same type.
package linepipe

import (
	"fmt"
	"sync"
	"time"
)

// Forever, passed to Read, blocks until a line arrives or the pipe is
// closed. It corresponds to the "very large timeout" convention from
// the spec.
const Forever time.Duration = -1

// Pipe is a producer/consumer line buffer. Typical usage is many
// concurrent writers (Push) and a single reader (Read), but neither
// side is restricted to one goroutine.
type Pipe struct {
	mu     sync.Mutex
	queue  []string
	closed bool
	notify chan struct{}
}

// New creates an open, empty pipe.
func New() *Pipe {
	return &Pipe{notify: make(chan struct{})}
}

// Push appends a line to the queue and wakes a blocked reader. It
// never blocks. Lines may be empty strings. Pushing to a closed pipe
// is a silent no-op — the writer side observes closure through its
// own means (a failed socket write, a closed handshake gate, etc.).
func (p *Pipe) Push(line string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, line)
	wake := p.notify
	p.notify = make(chan struct{})
	p.mu.Unlock()
	close(wake)
}

// Printf formats a line and pushes it, a convenience for callers that
// build lines with fmt-style verbs.
func (p *Pipe) Printf(format string, args ...any) {
	p.Push(fmt.Sprintf(format, args...))
}

// Close marks the pipe closed and wakes every blocked reader.
// Idempotent.
func (p *Pipe) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	wake := p.notify
	p.notify = make(chan struct{})
	p.mu.Unlock()
	close(wake)
}

// IsClosed reports whether Close has been called.
func (p *Pipe) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Read removes and returns the head line, waiting up to timeout if the
// queue is empty. It returns (line, true) when a line was obtained —
// including the case where timeout elapsed with nothing queued, which
// yields ("", true), indistinguishable from an actual empty line
// pushed by a writer. This ambiguity is inherited from the reference
// implementation this pipe reimplements and is preserved deliberately
// rather than papered over with a richer result type: callers that
// need to tell "timeout" from "empty line" should not push empty
// lines, exactly as upstream. It returns ("", false) once the pipe is
// closed and drained — the one unambiguous terminal signal.
//
// Forever blocks until a line arrives or the pipe closes. Any other
// negative duration is treated as a zero-length wait (poll-and-return).
func (p *Pipe) Read(timeout time.Duration) (string, bool) {
	hasDeadline := timeout != Forever
	var deadline time.Time
	if hasDeadline {
		if timeout < 0 {
			timeout = 0
		}
		deadline = time.Now().Add(timeout)
	}

	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			line := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return line, true
		}
		if p.closed {
			p.mu.Unlock()
			return "", false
		}
		wake := p.notify
		p.mu.Unlock()

		if !hasDeadline {
			<-wake
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", true
		}
		timer := time.NewTimer(remaining)
		select {
		case <-wake:
			timer.Stop()
			continue
		case <-timer.C:
			return "", true
		}
	}
}
