package videohub

import (
	"bytes"
	"strconv"
	"strings"
)

// Labels maps a connector id to its text label. A nil Labels is a request
// to receive the current label list; a partial Labels is a sparse change
// request (from a client) or notification (from a device); a full Labels
// is sent by devices on connection and on request. Serialization is in
// ascending id order, which the receiver treats as a sparse, id-keyed
// merge rather than a positional replacement.
type Labels map[int]string

func (s *Labels) parse(b []byte) error {
	if len(trim(b)) == 0 {
		*s = nil
		return nil
	}
	c := make(Labels)
	for n, l := range numberedLines(b) {
		c[n] = string(l)
	}
	*s = c
	return nil
}

func (s *Labels) dump(b *bytes.Buffer) {
	for n, l := range orderedIter(*s) {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(l, "\n", ""))
		b.WriteByte('\n')
	}
}

// InputLabelsBlock carries the text labels of input connectors.
type InputLabelsBlock struct{ Labels }

func (InputLabelsBlock) header() string { return "INPUT LABELS:" }

// OutputLabelsBlock carries the text labels of output connectors.
type OutputLabelsBlock struct{ Labels }

func (OutputLabelsBlock) header() string { return "OUTPUT LABELS:" }

// MonitorOutputLabelsBlock carries the text labels of monitoring outputs.
// Not present on modern Videohub devices; kept for protocol completeness.
type MonitorOutputLabelsBlock struct{ Labels }

func (MonitorOutputLabelsBlock) header() string { return "MONITOR OUTPUT LABELS:" }

// SerialPortLabelsBlock carries the text labels of serial ports.
type SerialPortLabelsBlock struct{ Labels }

func (SerialPortLabelsBlock) header() string { return "SERIAL PORT LABELS:" }

// FrameLabelsBlock carries the text labels of frame connectors.
type FrameLabelsBlock struct{ Labels }

func (FrameLabelsBlock) header() string { return "FRAME LABELS:" }
