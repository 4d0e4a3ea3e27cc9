package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

func TestLoadDescriptorRequiresNeteFlag(t *testing.T) {
	orig := netePath
	netePath = ""
	defer func() { netePath = orig }()

	if _, err := loadDescriptor(); err == nil {
		t.Fatal("expected an error when --nete is unset")
	}
}

func TestLoadDescriptorParsesFile(t *testing.T) {
	orig := netePath
	defer func() { netePath = orig }()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.nete")
	content := endpoint.WriteNETE(endpoint.Descriptor{
		Host:       "192.168.1.20",
		Port:       9999,
		AuthMethod: endpoint.AuthToken,
		AuthToken:  "secret",
	})
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write nete file: %v", err)
	}

	netePath = path
	d, err := loadDescriptor()
	if err != nil {
		t.Fatalf("loadDescriptor: %v", err)
	}
	if d.Host != "192.168.1.20" || d.Port != 9999 || d.AuthToken != "secret" {
		t.Fatalf("got %+v", d)
	}
}

func TestLoadDescriptorMissingFile(t *testing.T) {
	orig := netePath
	defer func() { netePath = orig }()

	netePath = filepath.Join(t.TempDir(), "does-not-exist.nete")
	if _, err := loadDescriptor(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
