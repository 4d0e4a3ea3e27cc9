package main

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

func writeTestNETE(t *testing.T, host string, port int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.nete")
	content := endpoint.WriteNETE(endpoint.Descriptor{
		Host:       host,
		Port:       port,
		AuthMethod: endpoint.AuthNone,
	})
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write nete file: %v", err)
	}
	return path
}

func newTestCommand(runE func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: runE}
	cmd.Flags().Bool("json", true, "")
	return cmd
}

func TestRunTestCommandAgainstLoopbackServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("uciok\n"))
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi: %v", err)
	}

	orig := netePath
	defer func() { netePath = orig }()
	netePath = writeTestNETE(t, host, port)

	cmd := newTestCommand(runTest)
	if err := runTest(cmd, nil); err != nil {
		t.Fatalf("runTest failed: %v", err)
	}
}

func TestRunTestCommandFailsWithoutNeteFlag(t *testing.T) {
	orig := netePath
	defer func() { netePath = orig }()
	netePath = ""

	cmd := newTestCommand(runTest)
	if err := runTest(cmd, nil); err == nil {
		t.Fatal("expected an error when --nete is unset")
	}
}
