package facade

import (
	"bufio"
	"context"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

type recordingReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingReporter) ReportError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}
	return host, port
}

// plainUCIServer accepts one connection, sends uciok immediately, and
// echoes any further lines with a "recv: " prefix.
func plainUCIServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("uciok\n"))
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			conn.Write([]byte("recv: " + scanner.Text() + "\n"))
		}
	}()
	return ln
}

func TestEngineStartReadWriteShutdown(t *testing.T) {
	ln := plainUCIServer(t)
	defer ln.Close()
	host, port := splitHostPort(t, ln.Addr().String())

	d := endpoint.Descriptor{Host: host, Port: port, AuthMethod: endpoint.AuthNone}
	e := New(d, &recordingReporter{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	line, ok := e.ReadLine(2 * time.Second)
	if !ok || line != "uciok" {
		t.Fatalf("got (%q, %v), want uciok", line, ok)
	}

	e.WriteLine("isready")
	line, ok = e.ReadLine(2 * time.Second)
	if !ok || line != "recv: isready" {
		t.Fatalf("got (%q, %v), want recv: isready", line, ok)
	}

	e.Shutdown()
}

func TestEngineStartFailsOnUnconfiguredDescriptor(t *testing.T) {
	e := New(endpoint.Descriptor{}, &recordingReporter{}, discardLogger())
	if err := e.Start(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured descriptor")
	}
}

func TestOptionsOkDetectsNetworkIDDrift(t *testing.T) {
	e := New(endpoint.Descriptor{NetworkID: "net-a"}, &recordingReporter{}, discardLogger())
	e.InitOptions(HostConfig{NetworkID: "net-a", HashMB: 64})

	if !e.OptionsOK(HostConfig{NetworkID: "net-a", HashMB: 64}) {
		t.Fatal("expected matching config to be OK")
	}
	if e.OptionsOK(HostConfig{NetworkID: "net-b", HashMB: 64}) {
		t.Fatal("expected network ID drift to invalidate options")
	}
	if e.OptionsOK(HostConfig{NetworkID: "net-a", HashMB: 128}) {
		t.Fatal("expected hash size change to invalidate options")
	}
}

func TestInitOptionsWritesSetOptionLines(t *testing.T) {
	ln := plainUCIServer(t)
	defer ln.Close()
	host, port := splitHostPort(t, ln.Addr().String())

	d := endpoint.Descriptor{Host: host, Port: port, AuthMethod: endpoint.AuthNone}
	e := New(d, &recordingReporter{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, ok := e.ReadLine(2 * time.Second); !ok {
		t.Fatal("expected startup line")
	}

	e.InitOptions(HostConfig{NetworkID: "net-a", HashMB: 128, SyzygyPath: "/tb/syzygy", GaviotaTbPath: "/tb/gaviota"})

	want := map[string]bool{
		"recv: setoption name Hash value 128":                  false,
		"recv: setoption name SyzygyPath value /tb/syzygy":     false,
		"recv: setoption name GaviotaTbPath value /tb/gaviota": false,
	}
	for range want {
		line, ok := e.ReadLine(2 * time.Second)
		if !ok {
			t.Fatalf("expected a setoption echo, pipe closed")
		}
		if _, known := want[line]; !known {
			t.Fatalf("unexpected line %q", line)
		}
		want[line] = true
	}
	for line, seen := range want {
		if !seen {
			t.Fatalf("never saw %q", line)
		}
	}

	e.Shutdown()
}

func TestInitOptionsSkipsWriteWithoutSession(t *testing.T) {
	e := New(endpoint.Descriptor{}, &recordingReporter{}, discardLogger())
	e.InitOptions(HostConfig{HashMB: 64})

	opt, ok := e.Options().Get("Hash")
	if !ok {
		t.Fatal("expected Hash option to be registered even without a session")
	}
	if opt.StringValue() != "64" {
		t.Fatalf("got Hash value %q, want 64", opt.StringValue())
	}
}

func TestOptionsOkTrueBeforeInit(t *testing.T) {
	e := New(endpoint.Descriptor{}, &recordingReporter{}, discardLogger())
	if !e.OptionsOK(HostConfig{}) {
		t.Fatal("expected OptionsOK to be true before InitOptions has ever run")
	}
}

func TestShutdownSuppressesReports(t *testing.T) {
	ln := plainUCIServer(t)
	defer ln.Close()
	host, port := splitHostPort(t, ln.Addr().String())

	reporter := &recordingReporter{}
	d := endpoint.Descriptor{Host: host, Port: port, AuthMethod: endpoint.AuthNone}
	e := New(d, reporter, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, ok := e.ReadLine(2 * time.Second); !ok {
		t.Fatal("expected startup line")
	}

	e.Shutdown()
	time.Sleep(50 * time.Millisecond)

	if reporter.count() != 0 {
		t.Fatalf("expected no reports after shutdown, got %v", reporter.messages)
	}
}
