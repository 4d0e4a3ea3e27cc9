package transport

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := newError("lan", FailureTimeout, inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to see through the wrapped error")
	}
	if err.Kind != FailureTimeout {
		t.Fatalf("got %v, want FailureTimeout", err.Kind)
	}
}

func TestFailureKindString(t *testing.T) {
	if FailureTLSHandshake.String() != "tls_handshake" {
		t.Fatalf("got %q", FailureTLSHandshake.String())
	}
}
