package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidar808/droidfish-netengine/internal/handshake"
	"github.com/vidar808/droidfish-netengine/internal/transport"
)

// runTest dials and handshakes with the configured endpoint using the
// transport and handshake layers directly, without ever spinning up a
// session — useful for diagnosing connectivity or auth problems in
// isolation before trusting a full engine run to it.
func runTest(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	d, err := loadDescriptor()
	if err != nil {
		return out.Error("failed to load endpoint descriptor", err)
	}

	logger := newCLILogger(out.jsonMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	conn, err := transport.Select(ctx, d, logger)
	if err != nil {
		return out.Error("connection failed", err)
	}
	dialElapsed := time.Since(started)

	result, err := handshake.Run(conn, d, logger)
	if err != nil {
		conn.Close()
		return out.Error("handshake failed", err)
	}
	handshakeElapsed := time.Since(started) - dialElapsed
	remoteAddr := conn.RemoteAddr().String()
	conn.Close()

	return out.Print(map[string]interface{}{
		"success":           true,
		"remote_addr":       remoteAddr,
		"dial_ms":           dialElapsed.Milliseconds(),
		"handshake_ms":      handshakeElapsed.Milliseconds(),
		"engine_selected":   d.SelectedEngine,
		"had_injected_line": result.HasInjectedLine,
	})
}
