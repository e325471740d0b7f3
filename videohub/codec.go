package videohub

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrIncomplete is returned by ParseSingleBlock when the supplied bytes are
// a valid prefix of a block but do not yet contain a terminating blank
// line. The caller MUST NOT advance its read cursor and should retry once
// more bytes are available. ErrIncomplete is never returned by any other
// function in this package and is never wrapped.
var ErrIncomplete = errors.New("videohub: incomplete block")

// ProtocolError reports bytes that cannot form a valid block regardless of
// any bytes that might follow. A ProtocolError is fatal to the stream it
// came from: the caller MUST stop parsing and close the underlying
// connection.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "videohub: protocol error: " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// ParseSingleBlock parses exactly one block from the front of input.
//
// On success it returns the unconsumed remainder and the parsed Message.
// If input holds a valid prefix of a block but the terminating blank line
// has not yet arrived, it returns ErrIncomplete and the original input
// unmodified. Any other error is a *ProtocolError and is fatal.
//
// Unrecognized block headers are not an error: they parse successfully
// into an *UnknownBlock carrying the raw header and body bytes, preserving
// forward compatibility with protocol extensions this package does not
// know about.
func ParseSingleBlock(input []byte) (remaining []byte, msg Message, err error) {
	tokenEnd, rest, ok := scanBlock(input)
	if !ok {
		return input, nil, ErrIncomplete
	}
	token := input[:tokenEnd]

	header, body, ok := bytes.Cut(token, []byte("\n"))
	if !ok {
		header = token
		body = nil
	}

	// Case-sensitivity is unspecified by Blackmagic, but devices behave
	// case-insensitively in practice. Do not mutate the caller's bytes.
	rawHeader := header
	header = append([]byte(nil), header...)
	header = trim(header)
	uppercase(header)

	m := newMessage(string(header))
	if m == nil {
		u := &UnknownBlock{Header: string(trim(rawHeader)), Body: append([]byte(nil), body...)}
		return input[rest:], u, nil
	}

	if perr := m.parse(body); perr != nil {
		return input[rest:], nil, &ProtocolError{Err: fmt.Errorf("%s: %w", header, perr)}
	}

	return input[rest:], m, nil
}

// ParseAllBlocks repeatedly applies ParseSingleBlock, returning every
// complete block found at the front of input and the unconsumed remainder.
// It stops, without error, at the first Incomplete result; it stops, with
// error, at the first ProtocolError.
func ParseAllBlocks(input []byte) (remaining []byte, msgs []Message, err error) {
	for {
		rest, m, perr := ParseSingleBlock(input)
		if errors.Is(perr, ErrIncomplete) {
			return input, msgs, nil
		}
		if perr != nil {
			return rest, msgs, perr
		}
		msgs = append(msgs, m)
		input = rest
	}
}

// Serialize appends the wire representation of m to buf: its header line,
// its body lines, and the blank-line block terminator. Id-keyed blocks
// (labels, routing, locks, status) are held as maps and emit their lines
// in ascending id order; the order in which the ids were received is not
// kept. Key/value blocks emit their entries in stored order.
func Serialize(buf *bytes.Buffer, m Message) {
	buf.WriteString(m.header())
	buf.WriteByte('\n')
	m.dump(buf)
	buf.WriteByte('\n')
}

// Marshal returns the wire representation of m as a standalone byte slice.
func Marshal(m Message) []byte {
	var buf bytes.Buffer
	Serialize(&buf, m)
	return buf.Bytes()
}
