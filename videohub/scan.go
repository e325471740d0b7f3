package videohub

import (
	"bytes"
	"cmp"
	"iter"
	"slices"
	"strconv"
)

// protocolWhitespace lists every byte the wire grammar treats as
// whitespace: a line is "blank" (and so closes a block) once trimming
// these from both ends leaves nothing. This conveniently coincides with
// the C isspace() function, which is what devices are presumed to use.
const protocolWhitespace = "\t\n\v\f\r "

// scanBlock locates the first complete block at the start of input: a
// header line followed by zero or more body lines, closed by a line
// containing only protocolWhitespace. tokenEnd is the offset just past
// the last header/body line; rest is the offset just past the
// terminating blank line itself. ok is false when input holds at most a
// valid, unterminated prefix of a block — the caller must wait for more
// bytes rather than treat this as an error.
//
// Both \n and \r\n line endings are accepted on input, since a line
// ending in "\r\n" still blank-checks to empty after trimming \r.
func scanBlock(input []byte) (tokenEnd, rest int, ok bool) {
	headerEnd := bytes.IndexByte(input, '\n')
	if headerEnd == -1 {
		return 0, 0, false
	}

	pos := headerEnd + 1
	for {
		nl := bytes.IndexByte(input[pos:], '\n')
		if nl == -1 {
			return 0, 0, false
		}
		lineEnd := pos + nl + 1
		if len(bytes.Trim(input[pos:lineEnd], protocolWhitespace)) == 0 {
			return pos, lineEnd, true
		}
		pos = lineEnd
	}
}

// colonLines streams a block body's lines, splitting each on its first
// ':' into a trimmed key/value pair. Lines without a ':' are skipped
// rather than erroring, since forward-compatible parsing must tolerate
// body lines this package doesn't understand yet.
func colonLines(b []byte) iter.Seq2[[]byte, []byte] {
	return func(yield func(key, value []byte) bool) {
		for _, line := range lines(b) {
			key, value, ok := bytes.Cut(line, []byte(":"))
			if !ok {
				continue
			}
			if !yield(trimLeft(key), trim(value)) {
				return
			}
		}
	}
}

// numberedLines streams a block body's lines, splitting each on its
// first ' ' into a connector id and its trimmed value. A line whose id
// isn't a valid integer is skipped, same rationale as colonLines.
func numberedLines(b []byte) iter.Seq2[int, []byte] {
	return func(yield func(id int, value []byte) bool) {
		for _, line := range lines(b) {
			key, value, ok := bytes.Cut(line, []byte(" "))
			if !ok {
				continue
			}
			id, err := strconv.Atoi(string(trim(key)))
			if err != nil {
				continue
			}
			if !yield(id, trim(value)) {
				return
			}
		}
	}
}

// lines yields the \n-separated lines of b one at a time, without
// materializing the full split up front the way bytes.Split would —
// label and route bodies can carry one line per connector, and this
// package re-scans them on every parse.
func lines(b []byte) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		n := 0
		for len(b) > 0 {
			line := b
			if i := bytes.IndexByte(b, '\n'); i != -1 {
				line, b = b[:i], b[i+1:]
			} else {
				b = nil
			}
			if !yield(n, line) {
				return
			}
			n++
		}
	}
}

// orderedIter iterates over a map in ascending key order, giving a
// sparse-keyed block a deterministic wire order on output regardless of
// Go's randomized map iteration order.
func orderedIter[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return func(yield func(key K, value V) bool) {
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// trim removes protocol whitespace from both ends of b.
func trim(b []byte) []byte {
	return bytes.Trim(b, protocolWhitespace)
}

// trimLeft removes protocol whitespace from the start of b.
func trimLeft(b []byte) []byte {
	return bytes.TrimLeft(b, protocolWhitespace)
}

// shiftASCIICase adds shift to every byte of b in [lo,hi], in place.
func shiftASCIICase(b []byte, lo, hi byte, shift int) {
	for i, c := range b {
		if lo <= c && c <= hi {
			b[i] = byte(int(c) + shift)
		}
	}
}

// uppercase performs an in-place ASCII-only uppercase conversion of b,
// used to canonicalize block headers before dispatch.
func uppercase(b []byte) { shiftASCIICase(b, 'a', 'z', 'A'-'a') }

// lowercase performs an in-place ASCII-only lowercase conversion of b,
// used to canonicalize key/value bodies before comparison.
func lowercase(b []byte) { shiftASCIICase(b, 'A', 'Z', 'a'-'A') }
