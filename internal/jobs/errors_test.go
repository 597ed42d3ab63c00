package jobs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := RateLimited("call budget exceeded", nil)

	if !IsKind(err, KindRateLimited) {
		t.Fatal("kind not detected")
	}
	if IsKind(err, KindTimeout) {
		t.Fatal("wrong kind matched")
	}
	if IsKind(nil, KindTimeout) {
		t.Fatal("nil error must not match any kind")
	}

	// The kind survives wrapping.
	wrapped := fmt.Errorf("searching remotive: %w", err)
	if !IsKind(wrapped, KindRateLimited) {
		t.Fatal("kind lost through wrapping")
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("upstream call failed", cause)

	msg := err.Error()
	if !strings.Contains(msg, "TRANSPORT") || !strings.Contains(msg, "connection refused") {
		t.Fatalf("message = %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable via errors.Is")
	}
}

func TestErrorCarriesStack(t *testing.T) {
	err := Timeout("call exceeded its budget", nil)
	if len(err.StackTrace()) == 0 {
		t.Fatal("stack trace missing")
	}
}
