package client

import (
	"context"

	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

// slotState tracks whether a cached value has ever been requested, grounded
// on the reference implementation's Option<Vec<RouterLabel>> cache fields:
// None before any request (slotEmpty), a request in flight with no value
// yet (slotPending), and a value ready to serve (slotPopulated).
type slotState int

const (
	slotEmpty slotState = iota
	slotPending
	slotPopulated
)

type cacheSlot[T any] struct {
	state slotState
	value T
}

func labelsToWire(ls []router.Label) videohub.Labels {
	w := make(videohub.Labels, len(ls))
	for _, l := range ls {
		w[int(l.ID)] = l.Name
	}
	return w
}

func routingToWire(ps []router.Patch) videohub.Routing {
	w := make(videohub.Routing, len(ps))
	for _, p := range ps {
		w[int(p.ToOutput)] = int(p.FromInput)
	}
	return w
}

func (c *Client) mergeDeviceInfo(m *videohub.DeviceInfoBlock) {
	if m.Empty {
		return
	}
	c.cacheMu.Lock()
	if m.ModelName != "" {
		c.info.Model = m.ModelName
	}
	if m.FriendlyName != "" {
		c.info.Name = m.FriendlyName
	}
	if m.VideoInputs > 0 {
		c.matrixInfo.InputCount = uint32(m.VideoInputs)
	}
	if m.VideoOutputs > 0 {
		c.matrixInfo.OutputCount = uint32(m.VideoOutputs)
	}
	c.cacheMu.Unlock()
	c.broadcast(router.Event{Kind: router.EventInfoUpdate})
	c.broadcast(router.Event{Kind: router.EventMatrixInfoUpdate})
}

// mergeInputLabels folds a sparse or full label delta into the INPUT label
// cache, bounded by InputCount. Out-of-range ids are dropped and logged,
// never silently accepted and never routed into the output cache: the
// reference implementation had a bug where an output-label update could
// clobber the input cache, which this merge/dispatch split by message type
// in handleInbound makes structurally impossible here.
func (c *Client) mergeInputLabels(delta videohub.Labels) {
	c.cacheMu.Lock()
	cur := labelMap(c.inputLabels)
	bound := c.matrixInfo.InputCount
	for id, name := range delta {
		if id < 0 || uint32(id) >= bound {
			c.log.Debug().Int("id", id).Msg("client: input label id out of range, dropped")
			continue
		}
		cur[uint32(id)] = name
	}
	snapshot := labelSlice(cur)
	c.inputLabels = cacheSlot[[]router.Label]{state: slotPopulated, value: snapshot}
	c.cacheMu.Unlock()
	c.broadcast(router.Event{Kind: router.EventInputLabelUpdate, Labels: snapshot})
}

// mergeOutputLabels is mergeInputLabels' counterpart, bounded by
// OutputCount and writing only to the output cache.
func (c *Client) mergeOutputLabels(delta videohub.Labels) {
	c.cacheMu.Lock()
	cur := labelMap(c.outputLabels)
	bound := c.matrixInfo.OutputCount
	for id, name := range delta {
		if id < 0 || uint32(id) >= bound {
			c.log.Debug().Int("id", id).Msg("client: output label id out of range, dropped")
			continue
		}
		cur[uint32(id)] = name
	}
	snapshot := labelSlice(cur)
	c.outputLabels = cacheSlot[[]router.Label]{state: slotPopulated, value: snapshot}
	c.cacheMu.Unlock()
	c.broadcast(router.Event{Kind: router.EventOutputLabelUpdate, Labels: snapshot})
}

// mergeRoutes folds a sparse or full routing delta into the route cache.
// to_output is bounded by OutputCount and from_input by InputCount,
// separately: the reference implementation validated both coordinates
// against input_count, which would wrongly reject a high-numbered valid
// output on a matrix with more outputs than inputs.
func (c *Client) mergeRoutes(delta videohub.Routing) {
	c.cacheMu.Lock()
	cur := routeMap(c.routes)
	outBound, inBound := c.matrixInfo.OutputCount, c.matrixInfo.InputCount
	for to, from := range delta {
		if to < 0 || uint32(to) >= outBound {
			c.log.Debug().Int("to_output", to).Msg("client: route to_output out of range, dropped")
			continue
		}
		if from < 0 || uint32(from) >= inBound {
			c.log.Debug().Int("from_input", from).Msg("client: route from_input out of range, dropped")
			continue
		}
		cur[uint32(to)] = uint32(from)
	}
	snapshot := patchSlice(cur)
	c.routes = cacheSlot[[]router.Patch]{state: slotPopulated, value: snapshot}
	c.cacheMu.Unlock()
	c.broadcast(router.Event{Kind: router.EventRouteUpdate, Patches: snapshot})
}

func labelMap(slot cacheSlot[[]router.Label]) map[uint32]string {
	m := make(map[uint32]string, len(slot.value))
	if slot.state == slotPopulated {
		for _, l := range slot.value {
			m[l.ID] = l.Name
		}
	}
	return m
}

func labelSlice(m map[uint32]string) []router.Label {
	out := make([]router.Label, 0, len(m))
	for id, name := range m {
		out = append(out, router.Label{ID: id, Name: name})
	}
	return out
}

func routeMap(slot cacheSlot[[]router.Patch]) map[uint32]uint32 {
	m := make(map[uint32]uint32, len(slot.value))
	if slot.state == slotPopulated {
		for _, p := range slot.value {
			m[p.ToOutput] = p.FromInput
		}
	}
	return m
}

func patchSlice(m map[uint32]uint32) []router.Patch {
	out := make([]router.Patch, 0, len(m))
	for to, from := range m {
		out = append(out, router.Patch{ToOutput: to, FromInput: from})
	}
	return out
}

// waitFor blocks until an event of kind (or EventDisconnected) arrives on
// sub, ctx is done, or the session ends.
func (c *Client) waitFor(ctx context.Context, sub chan router.Event, kind router.EventKind) (router.Event, error) {
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return router.Event{}, ErrDisconnected
			}
			if ev.Kind == router.EventDisconnected {
				return router.Event{}, ErrDisconnected
			}
			if ev.Kind == kind {
				return ev, nil
			}
		case <-ctx.Done():
			return router.Event{}, ctx.Err()
		case <-c.done:
			return router.Event{}, ErrDisconnected
		}
	}
}
