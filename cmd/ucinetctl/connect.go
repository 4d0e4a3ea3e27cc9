package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vidar808/droidfish-netengine/internal/diagnostics"
	"github.com/vidar808/droidfish-netengine/internal/facade"
	"github.com/vidar808/droidfish-netengine/internal/linepipe"
)

type stderrReporter struct{}

func (stderrReporter) ReportError(message string) {
	fmt.Fprintf(os.Stderr, "ucinetctl: engine error: %s\n", message)
}

// runConnect dials the configured endpoint, runs the handshake, and
// pumps UCI traffic between the engine and stdio until the engine
// disconnects or the process is interrupted.
func runConnect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	d, err := loadDescriptor()
	if err != nil {
		return out.Error("failed to load endpoint descriptor", err)
	}

	networkID, _ := cmd.Flags().GetString("network-id")
	if networkID != "" {
		d.NetworkID = networkID
	}
	hashMB, _ := cmd.Flags().GetInt64("hash")
	syzygyPath, _ := cmd.Flags().GetString("syzygy-path")
	gaviotaPath, _ := cmd.Flags().GetString("gaviota-path")
	diagAddr, _ := cmd.Flags().GetString("diagnostics-addr")

	logger := newCLILogger(out.jsonMode)
	engine := facade.New(d, stderrReporter{}, logger)
	engine.InitOptions(facade.HostConfig{
		NetworkID:     d.NetworkID,
		HashMB:        hashMB,
		SyzygyPath:    syzygyPath,
		GaviotaTbPath: gaviotaPath,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if diagAddr != "" {
		diagServer := diagnostics.NewServer(engine.Diagnostics(), logger, nil)
		go diagServer.Run(ctx)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", diagServer.HandleWebSocket)
		httpServer := &http.Server{Addr: diagAddr, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("diagnostics server: %v", err)
			}
		}()
		defer httpServer.Close()
		logger.Printf("diagnostics feed listening on %s", diagAddr)
	}

	if err := engine.Start(ctx); err != nil {
		return out.Error("failed to start engine session", err)
	}
	defer engine.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			line, ok := engine.ReadLine(linepipe.Forever)
			if !ok {
				return
			}
			fmt.Println(line)
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			engine.WriteLine(scanner.Text())
		}
	}()

	select {
	case <-sigCh:
	case <-done:
	}
	return nil
}
