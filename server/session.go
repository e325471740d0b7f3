package server

import (
	"context"
	"fmt"

	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

const matrixID = 0

type inboundItem struct {
	msg videohub.Message
	err error
}

// handleConn runs one client connection end to end: the initial dump,
// then the event/message loop, until the client disconnects, ctx is done,
// or a protocol error occurs.
func (s *Server) handleConn(ctx context.Context, tr *videohub.Transport) error {
	defer tr.Close()

	events, err := s.backend.EventStream(ctx)
	if err != nil {
		return fmt.Errorf("server: subscribe: %w", err)
	}

	if err := s.sendInitialDump(ctx, tr); err != nil {
		return fmt.Errorf("server: initial dump: %w", err)
	}

	inbound := make(chan inboundItem, 1)
	go func() {
		for {
			msg, err := tr.Recv()
			inbound <- inboundItem{msg: msg, err: err}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-inbound:
			if item.err != nil {
				return item.err
			}
			if err := s.handleMessage(ctx, tr, item.msg); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.handleEvent(tr, ev); err != nil {
				return err
			}
		}
	}
}

// sendInitialDump writes the connection prelude in the fixed order clients
// rely on: the protocol preamble, device identity and dimensions, and, if
// the backend is alive, a full snapshot of labels and routing, followed by
// the end-of-prelude marker.
func (s *Server) sendInitialDump(ctx context.Context, tr *videohub.Transport) error {
	if err := tr.Send(&videohub.PreambleBlock{Version: protocolVersion}); err != nil {
		return err
	}

	info, err := s.backend.GetInfo(ctx)
	if err != nil {
		return err
	}
	alive, err := s.backend.IsAlive(ctx)
	if err != nil {
		return err
	}

	dev := &videohub.DeviceInfoBlock{ModelName: info.Model, FriendlyName: info.Name}
	if alive {
		mi, err := s.backend.GetMatrixInfo(ctx, matrixID)
		if err != nil {
			return err
		}
		dev.Present = videohub.PresenceYes
		dev.VideoInputs = int(mi.InputCount)
		dev.VideoOutputs = int(mi.OutputCount)
	} else {
		dev.Present = videohub.PresenceNo
	}
	if err := tr.Send(dev); err != nil {
		return err
	}

	if alive {
		in, err := s.backend.GetInputLabels(ctx, matrixID)
		if err != nil {
			return err
		}
		if err := tr.Send(&videohub.InputLabelsBlock{Labels: labelsFromRouter(in)}); err != nil {
			return err
		}

		out, err := s.backend.GetOutputLabels(ctx, matrixID)
		if err != nil {
			return err
		}
		if err := tr.Send(&videohub.OutputLabelsBlock{Labels: labelsFromRouter(out)}); err != nil {
			return err
		}

		routes, err := s.backend.GetRoutes(ctx, matrixID)
		if err != nil {
			return err
		}
		if err := tr.Send(&videohub.VideoOutputRoutingBlock{Routing: routingFromRouter(routes)}); err != nil {
			return err
		}
	}

	return tr.Send(&videohub.EndPreludeBlock{})
}

// handleMessage dispatches one client->server message: a request (empty
// body) answers with the current full snapshot; a mutation is applied to
// the backend and acknowledged with ACK or NAK.
func (s *Server) handleMessage(ctx context.Context, tr *videohub.Transport, msg videohub.Message) error {
	switch m := msg.(type) {
	case *videohub.PingBlock:
		return tr.Send(&videohub.AckBlock{})

	case *videohub.InputLabelsBlock:
		if m.Labels == nil {
			labels, err := s.backend.GetInputLabels(ctx, matrixID)
			if err != nil {
				return tr.Send(&videohub.NakBlock{})
			}
			return tr.Send(&videohub.InputLabelsBlock{Labels: labelsFromRouter(labels)})
		}
		return s.ackOrNak(tr, s.backend.UpdateInputLabels(ctx, matrixID, labelsToRouter(m.Labels)))

	case *videohub.OutputLabelsBlock:
		if m.Labels == nil {
			labels, err := s.backend.GetOutputLabels(ctx, matrixID)
			if err != nil {
				return tr.Send(&videohub.NakBlock{})
			}
			return tr.Send(&videohub.OutputLabelsBlock{Labels: labelsFromRouter(labels)})
		}
		return s.ackOrNak(tr, s.backend.UpdateOutputLabels(ctx, matrixID, labelsToRouter(m.Labels)))

	case *videohub.VideoOutputRoutingBlock:
		if m.Routing == nil {
			routes, err := s.backend.GetRoutes(ctx, matrixID)
			if err != nil {
				return tr.Send(&videohub.NakBlock{})
			}
			return tr.Send(&videohub.VideoOutputRoutingBlock{Routing: routingFromRouter(routes)})
		}
		return s.ackOrNak(tr, s.backend.UpdateRoutes(ctx, matrixID, routingToRouter(m.Routing)))

	default:
		// AckBlock/NakBlock (the server never issues commands a client
		// would reply to), Preamble requests, status/lock blocks, and
		// Unknown blocks: no action.
		return nil
	}
}

func (s *Server) ackOrNak(tr *videohub.Transport, err error) error {
	if err != nil {
		s.log.Debug().Err(err).Msg("server: rejecting request")
		return tr.Send(&videohub.NakBlock{})
	}
	return tr.Send(&videohub.AckBlock{})
}

// handleEvent projects a backend event into the corresponding wire
// notification.
func (s *Server) handleEvent(tr *videohub.Transport, ev router.Event) error {
	switch ev.Kind {
	case router.EventInputLabelUpdate:
		return tr.Send(&videohub.InputLabelsBlock{Labels: labelsFromRouter(ev.Labels)})
	case router.EventOutputLabelUpdate:
		return tr.Send(&videohub.OutputLabelsBlock{Labels: labelsFromRouter(ev.Labels)})
	case router.EventRouteUpdate:
		return tr.Send(&videohub.VideoOutputRoutingBlock{Routing: routingFromRouter(ev.Patches)})
	default:
		return nil
	}
}

func labelsFromRouter(ls []router.Label) videohub.Labels {
	w := make(videohub.Labels, len(ls))
	for _, l := range ls {
		w[int(l.ID)] = l.Name
	}
	return w
}

func labelsToRouter(w videohub.Labels) []router.Label {
	out := make([]router.Label, 0, len(w))
	for id, name := range w {
		out = append(out, router.Label{ID: uint32(id), Name: name})
	}
	return out
}

func routingFromRouter(ps []router.Patch) videohub.Routing {
	w := make(videohub.Routing, len(ps))
	for _, p := range ps {
		w[int(p.ToOutput)] = int(p.FromInput)
	}
	return w
}

func routingToRouter(w videohub.Routing) []router.Patch {
	out := make([]router.Patch, 0, len(w))
	for to, from := range w {
		out = append(out, router.Patch{ToOutput: uint32(to), FromInput: uint32(from)})
	}
	return out
}
