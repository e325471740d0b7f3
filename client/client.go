// Package client implements the Videohub client engine: it dials a
// Videohub device (or anything speaking its protocol), performs the
// connect handshake, and exposes the session as a router.Backend so the
// rest of the system can treat a remote device exactly like any other
// routing fabric.
//
// A single goroutine (the session loop) owns the Transport for its
// lifetime, multiplexing outbound commands and inbound messages so that
// ACK/NAK replies can be paired with the request that caused them by pure
// arrival order, without any sequence number on the wire. This mirrors the
// reference implementation's backend/videohub.rs event loop, translated
// from a Tokio task with channels to a goroutine with the same shape.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

const (
	subscriberBuffer = 16
	cmdBuffer        = 32
)

type command struct {
	msg   videohub.Message
	reply chan bool // nil for fire-and-forget (read requests)
}

// Client is a live session to a single Videohub device. It implements
// router.Backend, backed by a single remote matrix (matrix id 0).
type Client struct {
	tr      *videohub.Transport
	cmds    chan command
	inbound chan inboundItem
	done    chan struct{}
	closeOnce sync.Once

	log zerolog.Logger

	cacheMu      sync.RWMutex
	info         router.Info
	matrixInfo   router.MatrixInfo
	inputLabels  cacheSlot[[]router.Label]
	outputLabels cacheSlot[[]router.Label]
	routes       cacheSlot[[]router.Patch]

	subsMu sync.Mutex
	subs   map[chan router.Event]struct{}

	pending []chan bool
}

type inboundItem struct {
	msg videohub.Message
	err error
}

// Connect dials addr, waits for the device's preamble and device-info
// blocks, and returns a live Client. It fails if the connection ends or a
// block fails to decode before the handshake completes, or if the device
// reports no usable video matrix. ctx is not consulted during the
// handshake: a peer that stays silent keeps Connect waiting.
func Connect(ctx context.Context, addr string, log zerolog.Logger) (*Client, error) {
	tr, err := videohub.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}

	dev, err := readHandshake(tr)
	if err != nil {
		tr.Close()
		return nil, err
	}
	if dev.VideoInputs <= 0 || dev.VideoOutputs <= 0 {
		tr.Close()
		return nil, fmt.Errorf("client: connect: device reports no usable video matrix")
	}

	c := &Client{
		tr:      tr,
		cmds:    make(chan command, cmdBuffer),
		inbound: make(chan inboundItem, cmdBuffer),
		done:    make(chan struct{}),
		log:     log,
		subs:    make(map[chan router.Event]struct{}),
		info:    router.Info{Model: dev.ModelName, Name: dev.FriendlyName, MatrixCount: 1},
		matrixInfo: router.MatrixInfo{
			InputCount:  uint32(dev.VideoInputs),
			OutputCount: uint32(dev.VideoOutputs),
		},
	}

	go c.readLoop()
	go c.sessionLoop()
	return c, nil
}

// readHandshake blocks until both a PreambleBlock and a DeviceInfoBlock
// have been observed, per the wire handshake in spec section 6.
func readHandshake(tr *videohub.Transport) (*videohub.DeviceInfoBlock, error) {
	var dev *videohub.DeviceInfoBlock
	var gotPreamble bool
	for dev == nil || !gotPreamble {
		msg, err := tr.Recv()
		if err != nil {
			return nil, fmt.Errorf("client: connect: %w", err)
		}
		switch m := msg.(type) {
		case *videohub.PreambleBlock:
			gotPreamble = true
		case *videohub.DeviceInfoBlock:
			dev = m
		}
	}
	return dev, nil
}

// Close ends the session, unblocking every operation in flight with
// ErrDisconnected.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.tr.Close()
	})
	return nil
}

func (c *Client) readLoop() {
	for {
		msg, err := c.tr.Recv()
		select {
		case c.inbound <- inboundItem{msg: msg, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// sessionLoop is the single goroutine that owns the Transport: it is the
// only writer and the only place ACK/NAK replies are paired with the
// command that requested them, in strict FIFO order.
func (c *Client) sessionLoop() {
	defer c.teardown()
	for {
		select {
		case cmd := <-c.cmds:
			if cmd.reply != nil {
				c.pending = append(c.pending, cmd.reply)
			}
			if err := c.tr.Send(cmd.msg); err != nil {
				c.log.Error().Err(err).Msg("client: send failed, ending session")
				return
			}
		case item := <-c.inbound:
			if item.err != nil {
				c.log.Info().Err(item.err).Msg("client: session ended")
				return
			}
			c.handleInbound(item.msg)
		case <-c.done:
			return
		}
	}
}

func (c *Client) teardown() {
	for _, r := range c.pending {
		close(r)
	}
	c.pending = nil

	c.subsMu.Lock()
	subs := c.subs
	c.subs = nil
	c.subsMu.Unlock()
	for ch := range subs {
		select {
		case ch <- router.Event{Kind: router.EventDisconnected}:
		default:
		}
		close(ch)
	}

	c.tr.Close()
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) handleInbound(msg videohub.Message) {
	switch m := msg.(type) {
	case *videohub.AckBlock:
		c.resolvePending(true)
	case *videohub.NakBlock:
		c.resolvePending(false)
	case *videohub.DeviceInfoBlock:
		c.mergeDeviceInfo(m)
	case *videohub.InputLabelsBlock:
		c.mergeInputLabels(m.Labels)
	case *videohub.OutputLabelsBlock:
		c.mergeOutputLabels(m.Labels)
	case *videohub.VideoOutputRoutingBlock:
		c.mergeRoutes(m.Routing)
	default:
		// Ping, EndPrelude, other status/lock blocks, and Unknown blocks
		// carry no state this cache tracks.
	}
}

func (c *Client) resolvePending(ok bool) {
	if len(c.pending) == 0 {
		return
	}
	r := c.pending[0]
	c.pending = c.pending[1:]
	r <- ok
	close(r)
}

func (c *Client) broadcast(ev router.Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (c *Client) subscribe() chan router.Event {
	ch := make(chan router.Event, subscriberBuffer)
	c.subsMu.Lock()
	if c.subs == nil {
		c.subsMu.Unlock()
		close(ch)
		return ch
	}
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()
	return ch
}

func (c *Client) unsubscribe(ch chan router.Event) {
	c.subsMu.Lock()
	if _, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(ch)
	}
	c.subsMu.Unlock()
}

// sendAck enqueues msg for the session loop and waits for the matching
// ACK/NAK, in arrival order.
func (c *Client) sendAck(msg videohub.Message) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case c.cmds <- command{msg: msg, reply: reply}:
	case <-c.done:
		return false, ErrDisconnected
	}
	select {
	case ok, open := <-reply:
		if !open {
			return false, ErrDisconnected
		}
		return ok, nil
	case <-c.done:
		return false, ErrDisconnected
	}
}

func (c *Client) sendFireAndForget(msg videohub.Message) error {
	select {
	case c.cmds <- command{msg: msg}:
		return nil
	case <-c.done:
		return ErrDisconnected
	}
}
