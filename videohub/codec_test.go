package videohub

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestParseAllBlocks_Smoke(t *testing.T) {
	rest, msgs, err := ParseAllBlocks(testSmoke)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder, got %q", rest)
	}
	if !reflect.DeepEqual(msgs, testBacon) {
		t.Fatalf("messages %#v do not match %#v", msgs, testBacon)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	for _, m := range testBacon {
		Serialize(&buf, m)
	}
	_, msgs, err := ParseAllBlocks(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(msgs, testBacon) {
		t.Fatalf("round-trip messages %#v do not match %#v", msgs, testBacon)
	}
}

// S1 — Preamble parse.
func TestScenario_PreambleParse(t *testing.T) {
	rest, msg, err := ParseSingleBlock([]byte("PROTOCOL PREAMBLE:\r\nVersion: 2.4\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected empty remainder, got %q", rest)
	}
	want := &PreambleBlock{Version: VersionNumber{Major: 2, Minor: 4}}
	if !reflect.DeepEqual(msg, want) {
		t.Fatalf("got %#v, want %#v", msg, want)
	}
}

// S2 — Partial parse.
func TestScenario_PartialParse(t *testing.T) {
	input := []byte("VIDEOHUB DEVICE:\r\nDevice present: ")
	rest, msg, err := ParseSingleBlock(input)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if msg != nil {
		t.Fatalf("expected nil message, got %#v", msg)
	}
	if !bytes.Equal(rest, input) {
		t.Fatalf("cursor must not advance on Incomplete")
	}
}

// S3 — Multi-block.
func TestScenario_MultiBlock(t *testing.T) {
	input := []byte("PROTOCOL PREAMBLE:\nVersion:2.4\n\nINPUT LABELS:\n0 A\n\n")
	rest, msgs, err := ParseAllBlocks(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected empty remainder, got %q", rest)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	labels, ok := msgs[1].(*InputLabelsBlock)
	if !ok {
		t.Fatalf("expected *InputLabelsBlock, got %T", msgs[1])
	}
	if !reflect.DeepEqual(labels.Labels, Labels{0: "A"}) {
		t.Fatalf("got labels %#v", labels.Labels)
	}
}

func TestIncrementalFeeding(t *testing.T) {
	whole := []byte("VIDEO OUTPUT ROUTING:\n0 1\n1 2\n\n")
	_, want, err := ParseSingleBlock(whole)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k <= len(whole); k++ {
		_, msg, err := ParseSingleBlock(whole[:k])
		if k < len(whole) {
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("split %d: expected ErrIncomplete, got msg=%#v err=%v", k, msg, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("split %d (whole): %v", k, err)
		}
		if !reflect.DeepEqual(msg, want) {
			t.Fatalf("split %d (whole): got %#v, want %#v", k, msg, want)
		}
	}
}

func TestCaseInsensitivity(t *testing.T) {
	// Headers and keys are case-insensitive; values are kept verbatim, so
	// only the header and key are lowercased here.
	upper := []byte("VIDEOHUB DEVICE:\nModel Name: Foo\n\n")
	lower := []byte("videohub device:\nmodel name: Foo\n\n")
	_, m1, err := ParseSingleBlock(upper)
	if err != nil {
		t.Fatal(err)
	}
	_, m2, err := ParseSingleBlock(lower)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("case-insensitive parse mismatch: %#v vs %#v", m1, m2)
	}
}

func TestLineEndingParity(t *testing.T) {
	crlf := []byte("PROTOCOL PREAMBLE:\r\nVersion: 2.4\r\n\r\n")
	lf := bytes.ReplaceAll(crlf, []byte("\r\n"), []byte("\n"))
	_, m1, err := ParseSingleBlock(crlf)
	if err != nil {
		t.Fatal(err)
	}
	_, m2, err := ParseSingleBlock(lf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("line-ending parity mismatch: %#v vs %#v", m1, m2)
	}
}

func TestUnknownPreservation(t *testing.T) {
	u := &UnknownBlock{Header: "FUTURE EXTENSION:", Body: []byte("a 1\nb 2\n")}
	_, msg, err := ParseSingleBlock(Marshal(u))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(msg, u) {
		t.Fatalf("got %#v, want %#v", msg, u)
	}
}

func TestNakIsNotAck(t *testing.T) {
	_, msg, err := ParseSingleBlock([]byte("NAK\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := msg.(*NakBlock); !ok {
		t.Fatalf("expected *NakBlock, got %T", msg)
	}
}

func TestFriendlyNameUniqueIDNotSwapped(t *testing.T) {
	input := []byte("VIDEOHUB DEVICE:\nFriendly name: My Hub\nUnique ID: ABC123\n\n")
	_, msg, err := ParseSingleBlock(input)
	if err != nil {
		t.Fatal(err)
	}
	d := msg.(*DeviceInfoBlock)
	if d.FriendlyName != "My Hub" {
		t.Fatalf("FriendlyName = %q, want %q", d.FriendlyName, "My Hub")
	}
	if d.UniqueID != "ABC123" {
		t.Fatalf("UniqueID = %q, want %q", d.UniqueID, "ABC123")
	}
}

var testSmoke = []byte(`PROTOCOL PREAMBLE:
Version: 2.8

VIDEOHUB DEVICE:
Device present: true
Model name: Blackmagic Smart Videohub 40 x 40
Friendly name: My Videohub
Unique ID: 7C2E0D038143
Video inputs: 40
Video processing units: 0
Video outputs: 40
Video monitoring outputs: 0
Serial ports: 0

INPUT LABELS:
0 INPUT 1
1 INPUT 2

OUTPUT LABELS:
0 OUTPUT 1
1 OUTPUT 2

VIDEO OUTPUT LOCKS:
0 U
1 L

VIDEO OUTPUT ROUTING:
0 0
1 1

CONFIGURATION:
Take Mode: false

END PRELUDE:

`)

var testBacon = []Message{
	&PreambleBlock{Version: VersionNumber{Major: 2, Minor: 8}},
	&DeviceInfoBlock{
		Present:                PresenceYes,
		ModelName:              "Blackmagic Smart Videohub 40 x 40",
		FriendlyName:           "My Videohub",
		UniqueID:               "7C2E0D038143",
		VideoInputs:            40,
		VideoProcessingUnits:   0,
		VideoOutputs:           40,
		VideoMonitoringOutputs: 0,
		SerialPorts:            0,
	},
	&InputLabelsBlock{Labels: Labels{0: "INPUT 1", 1: "INPUT 2"}},
	&OutputLabelsBlock{Labels: Labels{0: "OUTPUT 1", 1: "OUTPUT 2"}},
	&VideoOutputLocksBlock{Locks: Locks{0: LockUnlocked, 1: LockLocked}},
	&VideoOutputRoutingBlock{Routing: Routing{0: 0, 1: 1}},
	&ConfigurationBlock{Entries: []KVPair{{Key: "Take Mode", Value: "false"}}},
	&EndPreludeBlock{},
}
