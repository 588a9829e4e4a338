package trace

import (
	"context"
	"testing"

	"github.com/deskmate-ai/deskmate/internal/config"
	"github.com/deskmate-ai/deskmate/internal/log"
)

func TestSetupDisabled(t *testing.T) {
	cfg := &config.Config{TracingEnabled: false}

	shutdown, err := Setup(context.Background(), cfg, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown func must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown: %v", err)
	}
}

func TestSetupRequiresAPIKey(t *testing.T) {
	// Flag without key stays disabled, mirroring config.Tracing().
	cfg := &config.Config{TracingEnabled: true, TracingAPIKey: ""}

	shutdown, err := Setup(context.Background(), cfg, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown: %v", err)
	}
}
