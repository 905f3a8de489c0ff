package generic

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/delta"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// Interface holds the receive and transmit rate streams of one network
// interface, in megabits per second.
type Interface struct {
	name   string
	rx     *history.Stream[float64]
	tx     *history.Stream[float64]
	prevRx uint64
	prevTx uint64
}

// Name returns the interface name, e.g. "eth0".
func (i *Interface) Name() string { return i.name }

// RxMbps returns the latest receive rate.
func (i *Interface) RxMbps() float64 { return i.rx.Current() }

// TxMbps returns the latest transmit rate.
func (i *Interface) TxMbps() float64 { return i.tx.Current() }

// RxHistory returns the retained receive rates, oldest first.
func (i *Interface) RxHistory() []float64 { return i.rx.History() }

// TxHistory returns the retained transmit rates, oldest first.
func (i *Interface) TxHistory() []float64 { return i.tx.History() }

// Network tracks per-interface throughput. Interfaces are added the first
// time they are seen and keep their history after they disappear.
type Network struct {
	historyLen int
	ifaces     map[string]*Interface
	names      []string // sorted
	last       time.Time

	readCounters func(ctx context.Context) ([]net.IOCountersStat, error)
	now          func() time.Time
}

// NewNetwork creates the network collector. The first Update only records
// counters; rates start on the following tick.
func NewNetwork(historyLen int) *Network {
	return newNetwork(historyLen, func(ctx context.Context) ([]net.IOCountersStat, error) {
		return net.IOCountersWithContext(ctx, true)
	}, time.Now)
}

func newNetwork(historyLen int, read func(context.Context) ([]net.IOCountersStat, error), now func() time.Time) *Network {
	return &Network{
		historyLen:   capacity(historyLen),
		ifaces:       make(map[string]*Interface),
		readCounters: read,
		now:          now,
	}
}

// Family implements collectors.Collector.
func (n *Network) Family() collectors.Family { return collectors.FamilyNetwork }

// Update reads every interface's byte counters and pushes the rates since
// the previous accepted reading. Readings closer together than
// delta.MinRateInterval are skipped; a clock that moved backwards rebases
// the counters without pushing.
func (n *Network) Update(ctx context.Context) error {
	now := n.now()
	seeding := n.last.IsZero()
	var elapsed time.Duration
	if !seeding {
		if now.Before(n.last) {
			seeding = true
		} else {
			elapsed = delta.Elapsed(n.last, now)
			if delta.Debounced(elapsed) {
				return nil
			}
		}
	}

	stats, err := n.readCounters(ctx)
	if err != nil {
		return collectors.Transient(fmt.Errorf("generic: network counters: %w", err))
	}

	for _, s := range stats {
		iface, ok := n.ifaces[s.Name]
		if !ok {
			n.add(s)
			continue
		}
		if !seeding {
			iface.rx.Push(delta.Mbps(iface.prevRx, s.BytesRecv, elapsed))
			iface.tx.Push(delta.Mbps(iface.prevTx, s.BytesSent, elapsed))
		}
		iface.prevRx = s.BytesRecv
		iface.prevTx = s.BytesSent
	}
	n.last = now
	return nil
}

func (n *Network) add(s net.IOCountersStat) {
	n.ifaces[s.Name] = &Interface{
		name:   s.Name,
		rx:     history.WithCapacity(0.0, n.historyLen),
		tx:     history.WithCapacity(0.0, n.historyLen),
		prevRx: s.BytesRecv,
		prevTx: s.BytesSent,
	}
	i, _ := slices.BinarySearch(n.names, s.Name)
	n.names = slices.Insert(n.names, i, s.Name)
}

// InterfaceNames returns the known interface names in sorted order. The
// returned slice must not be modified.
func (n *Network) InterfaceNames() []string { return n.names }

// Interface returns the named interface.
func (n *Network) Interface(name string) (*Interface, bool) {
	i, ok := n.ifaces[name]
	return i, ok
}

// IndexOf returns the position of name in InterfaceNames, or -1.
func (n *Network) IndexOf(name string) int {
	i, ok := slices.BinarySearch(n.names, name)
	if !ok {
		return -1
	}
	return i
}
