package videohub

import (
	"bytes"
	"strconv"
)

// PortKind is the ENUM of known physical connector types reported by a
// Status block.
type PortKind int

const (
	PortNone PortKind = iota
	PortBNC
	PortOptical
	PortThunderbolt
	PortRS422
	PortOther // see PortType.Other for the raw wire token
)

// PortType is a connector's physical type. For PortOther, Other carries the
// raw token exactly as received, so that an unrecognized-but-valid token
// round-trips byte-for-byte instead of being normalized away.
type PortType struct {
	Kind  PortKind
	Other string
}

func toPortType(token string) PortType {
	upper := make([]byte, len(token))
	copy(upper, token)
	uppercase(upper)
	switch string(upper) {
	case "NONE":
		return PortType{Kind: PortNone}
	case "BNC":
		return PortType{Kind: PortBNC}
	case "OPTICAL":
		return PortType{Kind: PortOptical}
	case "THUNDERBOLT":
		return PortType{Kind: PortThunderbolt}
	case "RS422":
		return PortType{Kind: PortRS422}
	default:
		return PortType{Kind: PortOther, Other: token}
	}
}

func (p PortType) token() string {
	switch p.Kind {
	case PortNone:
		return "None"
	case PortBNC:
		return "BNC"
	case PortOptical:
		return "Optical"
	case PortThunderbolt:
		return "Thunderbolt"
	case PortRS422:
		return "RS422"
	default:
		return p.Other
	}
}

// Status maps a connector id to its reported physical port type. A nil
// Status is a request for the current status; devices send a full Status
// on connection and on request.
type Status map[int]PortType

func (s *Status) parse(b []byte) error {
	if len(trim(b)) == 0 {
		*s = nil
		return nil
	}
	c := make(Status)
	for n, l := range numberedLines(b) {
		c[n] = toPortType(string(l))
	}
	*s = c
	return nil
}

func (s *Status) dump(b *bytes.Buffer) {
	for n, p := range orderedIter(*s) {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(' ')
		b.WriteString(p.token())
		b.WriteByte('\n')
	}
}

// VideoInputStatusBlock reports the physical connector type of video inputs.
type VideoInputStatusBlock struct{ Status }

func (VideoInputStatusBlock) header() string { return "VIDEO INPUT STATUS:" }

// VideoOutputStatusBlock reports the physical connector type of video outputs.
type VideoOutputStatusBlock struct{ Status }

func (VideoOutputStatusBlock) header() string { return "VIDEO OUTPUT STATUS:" }

// SerialPortStatusBlock reports the physical connector type of serial ports.
type SerialPortStatusBlock struct{ Status }

func (SerialPortStatusBlock) header() string { return "SERIAL PORT STATUS:" }
