package videohub

import (
	"bytes"
	"fmt"
	"strconv"
)

// Routing maps an output id to the input id currently routed to it
// (map[to_output] = from_input). A nil Routing is a request to receive the
// current routing; a partial Routing is a sparse patch request or
// notification; a full Routing is sent on connection and on request.
// A to_output MUST appear at most once on the wire; on parse, a repeated
// to_output overwrites the earlier one, last wins.
type Routing map[int]int

func (r *Routing) parse(b []byte) error {
	if len(trim(b)) == 0 {
		*r = nil
		return nil
	}
	c := make(Routing)
	for n, l := range numberedLines(b) {
		t, err := strconv.Atoi(string(l))
		if err != nil {
			return fmt.Errorf("malformed routing entry %d: %w", n, err)
		}
		c[n] = t
	}
	*r = c
	return nil
}

func (r *Routing) dump(b *bytes.Buffer) {
	for n, l := range orderedIter(*r) {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(l))
		b.WriteByte('\n')
	}
}

// VideoOutputRoutingBlock contains the primary video routing table.
type VideoOutputRoutingBlock struct{ Routing }

func (VideoOutputRoutingBlock) header() string { return "VIDEO OUTPUT ROUTING:" }

// VideoMonitoringOutputRoutingBlock contains routing for monitoring outputs.
type VideoMonitoringOutputRoutingBlock struct{ Routing }

func (VideoMonitoringOutputRoutingBlock) header() string { return "VIDEO MONITORING OUTPUT ROUTING:" }

// SerialPortRoutingBlock contains routing for serial ports.
type SerialPortRoutingBlock struct{ Routing }

func (SerialPortRoutingBlock) header() string { return "SERIAL PORT ROUTING:" }

// ProcessingUnitRoutingBlock contains routing for processing units.
type ProcessingUnitRoutingBlock struct{ Routing }

func (ProcessingUnitRoutingBlock) header() string { return "PROCESSING UNIT ROUTING:" }

// FrameBufferRoutingBlock contains routing for frame buffers.
type FrameBufferRoutingBlock struct{ Routing }

func (FrameBufferRoutingBlock) header() string { return "FRAME BUFFER ROUTING:" }
