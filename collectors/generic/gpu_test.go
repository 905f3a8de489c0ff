package generic

import (
	"context"
	"errors"
	"testing"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

type fakeDevice struct {
	util        uint32
	used, total uint64
	utilErr     error
	memErr      error
	closed      int
}

func (d *fakeDevice) Name() (string, error) { return "Fake RTX", nil }

func (d *fakeDevice) Utilization() (uint32, error) { return d.util, d.utilErr }

func (d *fakeDevice) Memory() (uint64, uint64, error) { return d.used, d.total, d.memErr }

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func TestGPU_Update(t *testing.T) {
	dev := &fakeDevice{util: 37, used: 2 << 30, total: 8 << 30}
	g := newGPU(4, dev)
	ctx := context.Background()

	if g.Name() != "Fake RTX" {
		t.Errorf("Name() = %q", g.Name())
	}
	if err := g.Update(ctx); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if g.Usage() != 37 {
		t.Errorf("Usage() = %f, want 37", g.Usage())
	}
	if g.MemoryPercent() != 25 {
		t.Errorf("MemoryPercent() = %f, want 25", g.MemoryPercent())
	}

	// A failed utilization read keeps the old value but still updates memory.
	dev.utilErr = errors.New("gpu is lost")
	dev.used = 4 << 30
	err := g.Update(ctx)
	if !errors.Is(err, collectors.ErrTransient) {
		t.Errorf("Update() = %v, want ErrTransient", err)
	}
	if g.Usage() != 37 || g.MemoryPercent() != 50 {
		t.Errorf("after partial failure: usage=%f mem=%f, want 37/50", g.Usage(), g.MemoryPercent())
	}

	// Bounded history.
	dev.utilErr = nil
	for range 10 {
		_ = g.Update(ctx)
	}
	if got := len(g.UsageHistory()); got != 4 {
		t.Errorf("len(UsageHistory()) = %d, want 4", got)
	}
}

func TestGPU_CloseOnce(t *testing.T) {
	dev := &fakeDevice{}
	g := newGPU(4, dev)
	_ = g.Close()
	_ = g.Close()
	if dev.closed != 1 {
		t.Errorf("device closed %d times, want 1", dev.closed)
	}
}
