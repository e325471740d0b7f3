// Package ndi provides a router.Backend shaped like the reference
// implementation's NDI discovery backend: inputs are discovered sources on
// the network rather than fixed connectors, and outputs are static,
// named slots that can be patched to any discovered input. Actual NDI
// video frame routing is explicitly out of scope (see spec Non-goals);
// this backend only satisfies the Router Abstraction contract so a
// Videohub client can browse and patch NDI sources as if they were a
// routing matrix.
//
// Discovery uses mDNS via github.com/grandcat/zeroconf rather than the
// proprietary NDI SDK the reference implementation links against, since no
// Go binding for that SDK exists; see DESIGN.md for the rationale.
package ndi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"bridgekit.dev/videohub/router"
)

// ServiceType is the mDNS service type NDI sources advertise themselves
// under.
const ServiceType = "_ndi._tcp"

const subscriberBuffer = 16

// Backend discovers NDI sources over mDNS and exposes them as the input
// side of a single matrix; outputs are a fixed, named set of "patch bays"
// that can be routed to any discovered input.
type Backend struct {
	name        string
	outputCount uint32

	mu           sync.Mutex
	inputLabels  map[uint32]string // slot -> discovered source name
	sourceToSlot map[string]uint32
	nextSlot     uint32
	outputLabels map[uint32]string
	routes       map[uint32]uint32 // to_output -> from_input slot

	subsMu sync.Mutex
	subs   map[chan router.Event]struct{}
}

// New constructs a Backend that advertises itself as name and exposes
// outputCount static output slots. Call Run in a goroutine to start mDNS
// discovery; Run blocks until ctx is done.
func New(name string, maxInputs, outputCount uint32) *Backend {
	b := &Backend{
		name:         name,
		outputCount:  outputCount,
		inputLabels:  make(map[uint32]string, maxInputs),
		sourceToSlot: make(map[string]uint32, maxInputs),
		outputLabels: make(map[uint32]string, outputCount),
		routes:       make(map[uint32]uint32, outputCount),
		subs:         make(map[chan router.Event]struct{}),
	}
	for i := uint32(0); i < maxInputs; i++ {
		b.inputLabels[i] = ""
	}
	for i := uint32(0); i < outputCount; i++ {
		b.outputLabels[i] = fmt.Sprintf("%s %d", name, i+1)
	}
	return b
}

// Run browses for NDI sources on the network until ctx is canceled,
// reconciling discovered sources into free input slots every pollInterval.
func (b *Backend) Run(ctx context.Context, pollInterval time.Duration) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return err
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go b.reconcileLoop(ctx, entries)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			browseCtx, cancel := context.WithTimeout(ctx, pollInterval)
			_ = resolver.Browse(browseCtx, ServiceType, "local.", entries)
			<-browseCtx.Done()
			cancel()
		}
	}
}

func (b *Backend) reconcileLoop(ctx context.Context, entries <-chan *zeroconf.ServiceEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			b.addSource(e.Instance)
		}
	}
}

func (b *Backend) addSource(name string) {
	if b.isOwnOutput(name) {
		return
	}

	b.mu.Lock()
	if _, known := b.sourceToSlot[name]; known {
		b.mu.Unlock()
		return
	}
	var slot uint32
	found := false
	for id, n := range b.inputLabels {
		if n == "" {
			slot, found = id, true
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return
	}
	b.inputLabels[slot] = name
	b.sourceToSlot[name] = slot
	snapshot := snapshotLabels(b.inputLabels)
	b.mu.Unlock()

	b.publish(router.Event{Kind: router.EventInputLabelUpdate, MatrixID: 0, Labels: snapshot})
}

func (b *Backend) isOwnOutput(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.outputLabels {
		if n == name {
			return true
		}
	}
	return false
}

func snapshotLabels(m map[uint32]string) []router.Label {
	out := make([]router.Label, 0, len(m))
	for id, name := range m {
		out = append(out, router.Label{ID: id, Name: name})
	}
	return out
}

func (b *Backend) IsAlive(context.Context) (bool, error) { return true, nil }

func (b *Backend) GetInfo(context.Context) (router.Info, error) {
	return router.Info{Model: "NDIRouter", Name: b.name, MatrixCount: 1}, nil
}

func (b *Backend) assertMatrixZero(matrixID uint32) error {
	if matrixID != 0 {
		return &router.OutOfRangeError{MatrixID: matrixID, Value: matrixID, Bound: 1}
	}
	return nil
}

func (b *Backend) GetMatrixInfo(_ context.Context, matrixID uint32) (router.MatrixInfo, error) {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return router.MatrixInfo{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return router.MatrixInfo{InputCount: uint32(len(b.inputLabels)), OutputCount: b.outputCount}, nil
}

func (b *Backend) GetInputLabels(_ context.Context, matrixID uint32) ([]router.Label, error) {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshotLabels(b.inputLabels), nil
}

func (b *Backend) GetOutputLabels(_ context.Context, matrixID uint32) ([]router.Label, error) {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshotLabels(b.outputLabels), nil
}

// UpdateInputLabels always fails: input labels are auto-managed by
// discovery, matching the reference implementation's refusal to accept
// manual input renames.
func (b *Backend) UpdateInputLabels(context.Context, uint32, []router.Label) error {
	return router.ErrUnsupported
}

func (b *Backend) UpdateOutputLabels(_ context.Context, matrixID uint32, changed []router.Label) error {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return err
	}
	b.mu.Lock()
	for _, l := range changed {
		if l.ID >= b.outputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: l.ID, Bound: b.outputCount}
		}
		b.outputLabels[l.ID] = l.Name
	}
	snapshot := snapshotLabels(b.outputLabels)
	b.mu.Unlock()
	b.publish(router.Event{Kind: router.EventOutputLabelUpdate, MatrixID: matrixID, Labels: snapshot})
	return nil
}

func (b *Backend) GetRoutes(_ context.Context, matrixID uint32) ([]router.Patch, error) {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]router.Patch, 0, len(b.routes))
	for to, from := range b.routes {
		out = append(out, router.Patch{ToOutput: to, FromInput: from})
	}
	return out, nil
}

func (b *Backend) UpdateRoutes(_ context.Context, matrixID uint32, changes []router.Patch) error {
	if err := b.assertMatrixZero(matrixID); err != nil {
		return err
	}
	b.mu.Lock()
	for _, p := range changes {
		if p.ToOutput >= b.outputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.ToOutput, Bound: b.outputCount}
		}
		if _, ok := b.inputLabels[p.FromInput]; !ok {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.FromInput, Bound: uint32(len(b.inputLabels))}
		}
		b.routes[p.ToOutput] = p.FromInput
	}
	out := make([]router.Patch, 0, len(b.routes))
	for to, from := range b.routes {
		out = append(out, router.Patch{ToOutput: to, FromInput: from})
	}
	b.mu.Unlock()
	b.publish(router.Event{Kind: router.EventRouteUpdate, MatrixID: matrixID, Patches: out})
	return nil
}

func (b *Backend) EventStream(ctx context.Context) (<-chan router.Event, error) {
	ch := make(chan router.Event, subscriberBuffer)
	b.subsMu.Lock()
	b.subs[ch] = struct{}{}
	b.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		b.subsMu.Lock()
		delete(b.subs, ch)
		b.subsMu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (b *Backend) publish(ev router.Event) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
