// Package mock provides an in-memory router.Backend for tests and local
// bring-up, grounded on the reference implementation's DummyRouter: a
// fixed number of matrices, each with its own label and routing state,
// guarded by a single mutex and fanned out to subscribers over bounded,
// lossy per-subscriber channels.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bridgekit.dev/videohub/router"
)

const subscriberBuffer = 16

type matrix struct {
	dims         router.MatrixInfo
	inputLabels  map[uint32]string
	outputLabels map[uint32]string
	routes       map[uint32]uint32 // to_output -> from_input
}

func newMatrix(inputs, outputs uint32) *matrix {
	return &matrix{
		dims:         router.MatrixInfo{InputCount: inputs, OutputCount: outputs},
		inputLabels:  make(map[uint32]string, inputs),
		outputLabels: make(map[uint32]string, outputs),
		routes:       make(map[uint32]uint32, outputs),
	}
}

// Backend is an in-memory, multi-matrix router.Backend implementation.
// The zero value is not usable; construct with New.
type Backend struct {
	mu      sync.Mutex
	alive   bool
	info    router.Info
	matrix  []*matrix
	subs    map[uuid.UUID]chan router.Event
}

// New constructs a Backend with the given number of identically-sized
// matrices. It starts alive.
func New(info router.Info, matrixCount int, inputCount, outputCount uint32) *Backend {
	b := &Backend{
		alive: true,
		info:  info,
		subs:  make(map[uuid.UUID]chan router.Event),
	}
	for i := 0; i < matrixCount; i++ {
		b.matrix = append(b.matrix, newMatrix(inputCount, outputCount))
	}
	return b
}

// SetAlive changes the liveness reported by IsAlive; it does not itself
// emit an event, matching the reference implementation's treatment of
// liveness as a cheap, frequently-polled property.
func (b *Backend) SetAlive(alive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alive = alive
}

func (b *Backend) matrixAt(id uint32) (*matrix, error) {
	if int(id) >= len(b.matrix) {
		return nil, &router.OutOfRangeError{MatrixID: id, Value: id, Bound: uint32(len(b.matrix))}
	}
	return b.matrix[id], nil
}

func (b *Backend) IsAlive(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive, nil
}

func (b *Backend) GetInfo(context.Context) (router.Info, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info, nil
}

func (b *Backend) GetMatrixInfo(_ context.Context, matrixID uint32) (router.MatrixInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		return router.MatrixInfo{}, err
	}
	return m.dims, nil
}

func labelsOf(m map[uint32]string) []router.Label {
	out := make([]router.Label, 0, len(m))
	for id, name := range m {
		out = append(out, router.Label{ID: id, Name: name})
	}
	return out
}

func (b *Backend) GetInputLabels(_ context.Context, matrixID uint32) ([]router.Label, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		return nil, err
	}
	return labelsOf(m.inputLabels), nil
}

func (b *Backend) GetOutputLabels(_ context.Context, matrixID uint32) ([]router.Label, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		return nil, err
	}
	return labelsOf(m.outputLabels), nil
}

func (b *Backend) UpdateInputLabels(_ context.Context, matrixID uint32, changed []router.Label) error {
	b.mu.Lock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	for _, l := range changed {
		if l.ID >= m.dims.InputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: l.ID, Bound: m.dims.InputCount}
		}
		m.inputLabels[l.ID] = l.Name
	}
	snapshot := labelsOf(m.inputLabels)
	b.mu.Unlock()
	b.publish(router.Event{Kind: router.EventInputLabelUpdate, MatrixID: matrixID, Labels: snapshot})
	return nil
}

func (b *Backend) UpdateOutputLabels(_ context.Context, matrixID uint32, changed []router.Label) error {
	b.mu.Lock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	for _, l := range changed {
		if l.ID >= m.dims.OutputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: l.ID, Bound: m.dims.OutputCount}
		}
		m.outputLabels[l.ID] = l.Name
	}
	snapshot := labelsOf(m.outputLabels)
	b.mu.Unlock()
	b.publish(router.Event{Kind: router.EventOutputLabelUpdate, MatrixID: matrixID, Labels: snapshot})
	return nil
}

func (b *Backend) GetRoutes(_ context.Context, matrixID uint32) ([]router.Patch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		return nil, err
	}
	out := make([]router.Patch, 0, len(m.routes))
	for to, from := range m.routes {
		out = append(out, router.Patch{ToOutput: to, FromInput: from})
	}
	return out, nil
}

func (b *Backend) UpdateRoutes(_ context.Context, matrixID uint32, changes []router.Patch) error {
	b.mu.Lock()
	m, err := b.matrixAt(matrixID)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	for _, p := range changes {
		if p.ToOutput >= m.dims.OutputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.ToOutput, Bound: m.dims.OutputCount}
		}
		if p.FromInput >= m.dims.InputCount {
			b.mu.Unlock()
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.FromInput, Bound: m.dims.InputCount}
		}
		m.routes[p.ToOutput] = p.FromInput
	}
	out := make([]router.Patch, 0, len(m.routes))
	for to, from := range m.routes {
		out = append(out, router.Patch{ToOutput: to, FromInput: from})
	}
	b.mu.Unlock()
	b.publish(router.Event{Kind: router.EventRouteUpdate, MatrixID: matrixID, Patches: out})
	return nil
}

// EventStream registers a new subscriber and returns its event channel.
// The channel is closed and unregistered once ctx is done.
func (b *Backend) EventStream(ctx context.Context) (<-chan router.Event, error) {
	id := uuid.New()
	ch := make(chan router.Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// publish fans an event out to every subscriber, dropping it for any
// subscriber whose channel is full rather than blocking — event delivery
// is explicitly best-effort.
func (b *Backend) publish(ev router.Event) {
	b.mu.Lock()
	subs := make([]chan router.Event, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
