package client

import (
	"context"

	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

// IsAlive reports whether the session is still connected. It never blocks.
func (c *Client) IsAlive(context.Context) (bool, error) {
	select {
	case <-c.done:
		return false, nil
	default:
		return true, nil
	}
}

func (c *Client) GetInfo(context.Context) (router.Info, error) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return c.info, nil
}

func (c *Client) assertMatrixZero(matrixID uint32) error {
	if matrixID != 0 {
		return &router.OutOfRangeError{MatrixID: matrixID, Value: matrixID, Bound: 1}
	}
	return nil
}

// GetMatrixInfo returns the cached matrix dimensions observed from the
// device's handshake and any later VideohubDevice update. The remote
// device is always matrix 0 as seen by this Client.
func (c *Client) GetMatrixInfo(_ context.Context, matrixID uint32) (router.MatrixInfo, error) {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return router.MatrixInfo{}, err
	}
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return c.matrixInfo, nil
}

func (c *Client) GetInputLabels(ctx context.Context, matrixID uint32) ([]router.Label, error) {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	return c.readLabels(ctx, &c.inputLabels, router.EventInputLabelUpdate, &videohub.InputLabelsBlock{})
}

func (c *Client) GetOutputLabels(ctx context.Context, matrixID uint32) ([]router.Label, error) {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	return c.readLabels(ctx, &c.outputLabels, router.EventOutputLabelUpdate, &videohub.OutputLabelsBlock{})
}

// readLabels serves slot if already populated; otherwise it issues request
// (an empty-bodied label block, which the device answers by pushing a full
// label list rather than ACK/NAK) and waits for the corresponding cache
// event.
func (c *Client) readLabels(ctx context.Context, slot *cacheSlot[[]router.Label], kind router.EventKind, request videohub.Message) ([]router.Label, error) {
	// Subscribe before inspecting slot so a reply that populates the slot
	// concurrently is never missed in the gap between the check and the
	// subscription: once sub exists, every later broadcast for this slot
	// is either seen directly below (already populated) or queued on sub
	// for waitFor to pick up.
	sub := c.subscribe()
	defer c.unsubscribe(sub)

	c.cacheMu.Lock()
	if slot.state == slotPopulated {
		v := slot.value
		c.cacheMu.Unlock()
		return v, nil
	}
	alreadyPending := slot.state == slotPending
	slot.state = slotPending
	c.cacheMu.Unlock()

	if !alreadyPending {
		if err := c.sendFireAndForget(request); err != nil {
			return nil, err
		}
	}

	ev, err := c.waitFor(ctx, sub, kind)
	if err != nil {
		return nil, err
	}
	return ev.Labels, nil
}

func (c *Client) GetRoutes(ctx context.Context, matrixID uint32) ([]router.Patch, error) {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return nil, err
	}
	sub := c.subscribe()
	defer c.unsubscribe(sub)

	c.cacheMu.Lock()
	if c.routes.state == slotPopulated {
		v := c.routes.value
		c.cacheMu.Unlock()
		return v, nil
	}
	alreadyPending := c.routes.state == slotPending
	c.routes.state = slotPending
	c.cacheMu.Unlock()

	if !alreadyPending {
		if err := c.sendFireAndForget(&videohub.VideoOutputRoutingBlock{}); err != nil {
			return nil, err
		}
	}

	ev, err := c.waitFor(ctx, sub, router.EventRouteUpdate)
	if err != nil {
		return nil, err
	}
	return ev.Patches, nil
}

// UpdateInputLabels writes changed through to the device and, once
// acknowledged, folds it into the local input cache directly rather than
// waiting for the device's own echo, so a caller observes its own write
// immediately.
func (c *Client) UpdateInputLabels(_ context.Context, matrixID uint32, changed []router.Label) error {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return err
	}
	wire := labelsToWire(changed)
	ok, err := c.sendAck(&videohub.InputLabelsBlock{Labels: wire})
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	c.mergeInputLabels(wire)
	return nil
}

// UpdateOutputLabels is UpdateInputLabels' counterpart, writing only to the
// output cache: the two never share a code path, so an output update can
// never be folded into the input cache or vice versa.
func (c *Client) UpdateOutputLabels(_ context.Context, matrixID uint32, changed []router.Label) error {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return err
	}
	wire := labelsToWire(changed)
	ok, err := c.sendAck(&videohub.OutputLabelsBlock{Labels: wire})
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	c.mergeOutputLabels(wire)
	return nil
}

// UpdateRoutes writes changes through to the device and folds them into
// the local route cache on ACK, using the same from_input/to_output bounds
// as mergeRoutes.
func (c *Client) UpdateRoutes(_ context.Context, matrixID uint32, changes []router.Patch) error {
	if err := c.assertMatrixZero(matrixID); err != nil {
		return err
	}
	c.cacheMu.RLock()
	outBound, inBound := c.matrixInfo.OutputCount, c.matrixInfo.InputCount
	c.cacheMu.RUnlock()
	for _, p := range changes {
		if p.ToOutput >= outBound {
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.ToOutput, Bound: outBound}
		}
		if p.FromInput >= inBound {
			return &router.OutOfRangeError{MatrixID: matrixID, Value: p.FromInput, Bound: inBound}
		}
	}
	wire := routingToWire(changes)
	ok, err := c.sendAck(&videohub.VideoOutputRoutingBlock{Routing: wire})
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	c.mergeRoutes(wire)
	return nil
}

// EventStream returns a channel of cache-update events observed from the
// device, closed when ctx is done or the session ends.
func (c *Client) EventStream(ctx context.Context) (<-chan router.Event, error) {
	ch := c.subscribe()
	go func() {
		select {
		case <-ctx.Done():
			c.unsubscribe(ch)
		case <-c.done:
		}
	}()
	return ch, nil
}
