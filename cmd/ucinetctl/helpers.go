package main

import (
	"fmt"
	"os"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

// loadDescriptor reads and parses the .nete file named by the global
// --nete flag. A missing --nete is always an error: there is no
// sensible default endpoint to fall back to.
func loadDescriptor() (endpoint.Descriptor, error) {
	if netePath == "" {
		return endpoint.Descriptor{}, fmt.Errorf("--nete is required")
	}
	data, err := os.ReadFile(netePath)
	if err != nil {
		return endpoint.Descriptor{}, fmt.Errorf("read %s: %w", netePath, err)
	}
	d, err := endpoint.ParseNETE(string(data))
	if err != nil {
		return endpoint.Descriptor{}, fmt.Errorf("parse %s: %w", netePath, err)
	}
	return d, nil
}
