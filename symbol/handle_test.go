package symbol

import (
	"context"
	"errors"
	"testing"
)

type fakeDevice struct {
	sessionID    uint32
	resolveCalls int
	handle       uint32
	resolveErr   error
}

func (d *fakeDevice) SessionID() uint32 { return d.sessionID }

func (d *fakeDevice) HandleByName(ctx context.Context, symbol string) (uint32, error) {
	d.resolveCalls++
	if d.resolveErr != nil {
		return 0, d.resolveErr
	}
	return d.handle, nil
}

func (d *fakeDevice) Read(ctx context.Context, indexGroup, indexOffset uint32, buf []byte) (int, error) {
	return 0, nil
}

func (d *fakeDevice) Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error {
	return nil
}

func TestCacheGetResolvesOnce(t *testing.T) {
	dev := &fakeDevice{sessionID: 1, handle: 42}
	var c Cache

	h, err := c.Get(context.Background(), dev, "MAIN.foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h != 42 {
		t.Errorf("handle = %d, want 42", h)
	}

	h, err = c.Get(context.Background(), dev, "MAIN.foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h != 42 {
		t.Errorf("handle = %d, want 42", h)
	}
	if dev.resolveCalls != 1 {
		t.Errorf("resolveCalls = %d, want 1 (cached on second Get)", dev.resolveCalls)
	}
}

func TestCacheGetReResolvesOnSessionChange(t *testing.T) {
	dev := &fakeDevice{sessionID: 1, handle: 42}
	var c Cache

	if _, err := c.Get(context.Background(), dev, "MAIN.foo"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	dev.sessionID = 2
	dev.handle = 99
	h, err := c.Get(context.Background(), dev, "MAIN.foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h != 99 {
		t.Errorf("handle = %d, want 99 after session change", h)
	}
	if dev.resolveCalls != 2 {
		t.Errorf("resolveCalls = %d, want 2", dev.resolveCalls)
	}
}

func TestCacheInvalidateForcesReResolve(t *testing.T) {
	dev := &fakeDevice{sessionID: 1, handle: 42}
	var c Cache

	if _, err := c.Get(context.Background(), dev, "MAIN.foo"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Invalidate()
	if _, err := c.Get(context.Background(), dev, "MAIN.foo"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dev.resolveCalls != 2 {
		t.Errorf("resolveCalls = %d, want 2 after Invalidate", dev.resolveCalls)
	}
}

func TestCacheGetPropagatesResolveError(t *testing.T) {
	dev := &fakeDevice{sessionID: 1, resolveErr: errors.New("no such symbol")}
	var c Cache

	if _, err := c.Get(context.Background(), dev, "MAIN.missing"); err == nil {
		t.Error("expected an error from a failing resolve")
	}
}
