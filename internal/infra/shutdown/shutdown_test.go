package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandler_HooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var order []string
	h.OnShutdown(func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		order = append(order, "server")
		return nil
	})

	if err := h.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(order) != 2 || order[0] != "server" || order[1] != "store" {
		t.Errorf("hook order = %v, want [server store]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel not closed after Run")
	}
}

func TestHandler_ReturnsHookError(t *testing.T) {
	h := NewHandler(time.Second)
	wantErr := errors.New("close failed")

	h.OnShutdown(func(context.Context) error { return wantErr })
	h.OnShutdown(func(context.Context) error { return nil })

	if err := h.Run(); !errors.Is(err, wantErr) {
		t.Errorf("Run = %v, want %v", err, wantErr)
	}
}

func TestHandler_HooksShareDeadline(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	var sawDeadline bool
	h.OnShutdown(func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	})

	if err := h.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !sawDeadline {
		t.Error("hook context has no deadline")
	}
}
