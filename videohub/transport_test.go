package videohub

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

// rwBuffer adapts a bytes.Buffer to io.ReadWriteCloser for transport tests.
type rwBuffer struct{ bytes.Buffer }

func (*rwBuffer) Close() error { return nil }

func TestTransport_RecvSmoke(t *testing.T) {
	buf := &rwBuffer{}
	buf.Write(testSmoke)
	tr := NewTransport(buf)
	for _, want := range testBacon {
		got, err := tr.Recv()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
	if _, err := tr.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestTransport_SendThenRecv(t *testing.T) {
	buf := &rwBuffer{}
	tr := NewTransport(buf)
	for _, m := range testBacon {
		if err := tr.Send(m); err != nil {
			t.Fatal(err)
		}
	}
	rt := NewTransport(buf)
	for _, want := range testBacon {
		got, err := rt.Recv()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}
