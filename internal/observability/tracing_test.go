package observability

import (
	"context"
	"testing"
	"time"

	"github.com/koopa0/lessonbank/internal/log"
)

func TestSetup_DefaultEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	shutdown, err := Setup(ctx, Config{}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown function")
	}

	// Shutdown must not hang even when no collector is listening.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	_ = shutdown(shutdownCtx)
}

func TestSetup_CustomConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	shutdown, err := Setup(ctx, Config{
		Endpoint:    "localhost:14318",
		Environment: "test",
		ServiceName: "lessonbank-test",
	}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() unexpected error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	_ = shutdown(shutdownCtx)
}
