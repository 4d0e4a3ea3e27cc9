package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidar808/droidfish-netengine/internal/facade"
)

type discardReporter struct{}

func (discardReporter) ReportError(string) {}

// runOptions connects long enough to receive the engine's `uci`
// handshake, then prints whatever options it declared along the way.
func runOptions(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	d, err := loadDescriptor()
	if err != nil {
		return out.Error("failed to load endpoint descriptor", err)
	}

	logger := newCLILogger(out.jsonMode)
	engine := facade.New(d, discardReporter{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		return out.Error("failed to start engine session", err)
	}
	defer engine.Shutdown()

	engine.WriteLine("uci")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, ok := engine.ReadLine(500 * time.Millisecond)
		if !ok {
			break
		}
		if line == "uciok" {
			break
		}
	}

	registry := engine.Options()
	type optionSummary struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Value   string `json:"value"`
		Visible bool   `json:"visible"`
	}
	var summaries []optionSummary
	for _, name := range registry.Names() {
		opt, ok := registry.Get(name)
		if !ok {
			continue
		}
		summaries = append(summaries, optionSummary{
			Name:    opt.Name(),
			Type:    opt.Kind().String(),
			Value:   opt.StringValue(),
			Visible: opt.Visible(),
		})
	}

	return out.Print(map[string]interface{}{"options": summaries})
}
