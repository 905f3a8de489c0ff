package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/compose"
	"gitlab.com/tinyland/lab/boardtop/display/tui"
	"gitlab.com/tinyland/lab/boardtop/internal/format"
)

// snapshotSource is the compositor surface printOnce reads.
type snapshotSource interface {
	Update(ctx context.Context) error
	Capabilities() []collectors.Family
	Usage(f collectors.Family) (collectors.UsageReader, bool)
	Source(f collectors.Family) compose.Source
}

// printOnce takes two update passes interval apart, so counter-based
// families have a delta, then prints one line per family.
func printOnce(ctx context.Context, w io.Writer, m snapshotSource, network tui.Network, interval time.Duration) error {
	if err := m.Update(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
	}
	if err := m.Update(ctx); err != nil {
		return err
	}
	return writeSnapshot(w, m, network)
}

func writeSnapshot(w io.Writer, m snapshotSource, network tui.Network) error {
	for _, f := range m.Capabilities() {
		if f == collectors.FamilyNetwork {
			if err := writeNetwork(w, network); err != nil {
				return err
			}
			continue
		}
		r, ok := m.Usage(f)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-8s %6.1f%%  %s\n", f, r.Usage(), m.Source(f)); err != nil {
			return err
		}
	}
	return nil
}

func writeNetwork(w io.Writer, network tui.Network) error {
	if network == nil {
		return nil
	}
	for _, name := range network.InterfaceNames() {
		rx, tx, ok := network.Rates(name)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-8s %-10s rx %s  tx %s\n", collectors.FamilyNetwork, name,
			format.Mbps(latest(rx)), format.Mbps(latest(tx))); err != nil {
			return err
		}
	}
	return nil
}

func latest(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
