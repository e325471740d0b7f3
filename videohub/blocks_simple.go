package videohub

import "bytes"

// AckBlock is the single-line acknowledgment sent in reply to an accepted
// mutation request.
type AckBlock struct{}

func (AckBlock) header() string     { return "ACK" }
func (*AckBlock) parse([]byte) error { return nil }
func (*AckBlock) dump(*bytes.Buffer) {}

// NakBlock is the single-line rejection sent in reply to a refused
// mutation request. It is wire-distinct from AckBlock: the two MUST NOT be
// conflated by the parser.
type NakBlock struct{}

func (NakBlock) header() string     { return "NAK" }
func (*NakBlock) parse([]byte) error { return nil }
func (*NakBlock) dump(*bytes.Buffer) {}

// PingBlock is an empty block a peer may send to check the connection is
// still alive. The receiver should reply with AckBlock.
type PingBlock struct{}

func (PingBlock) header() string     { return "PING:" }
func (*PingBlock) parse([]byte) error { return nil }
func (*PingBlock) dump(*bytes.Buffer) {}

// EndPreludeBlock signals the end of the initial state dump; any block
// that follows is an asynchronous change notification.
type EndPreludeBlock struct{}

func (EndPreludeBlock) header() string     { return "END PRELUDE:" }
func (*EndPreludeBlock) parse([]byte) error { return nil }
func (*EndPreludeBlock) dump(*bytes.Buffer) {}

// UnknownBlock preserves a block whose header this package does not
// recognize, as raw header and body bytes, so it can be forwarded or
// re-serialized without loss. Header is the trimmed header text without
// its trailing colon conventions normalized; Body is the raw body bytes as
// received, including internal newlines but excluding the block-terminating
// blank line.
type UnknownBlock struct {
	Header string
	Body   []byte
}

func (u UnknownBlock) header() string { return u.Header }

func (*UnknownBlock) parse([]byte) error { return nil }

func (u *UnknownBlock) dump(b *bytes.Buffer) {
	b.Write(u.Body)
}
