package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bridgekit.dev/videohub/client"
	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

func TestClient_ConnectAndLabelRoundTrip(t *testing.T) {
	l, err := videohub.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	type result struct {
		c   *client.Client
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		c, err := client.Connect(context.Background(), l.Addr().String(), zerolog.Nop())
		resultCh <- result{c, err}
	}()

	dev, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	if err := dev.Send(&videohub.PreambleBlock{Version: videohub.VersionNumber{Major: 2, Minor: 7}}); err != nil {
		t.Fatal(err)
	}
	if err := dev.Send(&videohub.DeviceInfoBlock{
		Present: videohub.PresenceYes, ModelName: "Test", FriendlyName: "Test Hub",
		VideoInputs: 4, VideoOutputs: 2,
	}); err != nil {
		t.Fatal(err)
	}
	if err := dev.Send(&videohub.EndPreludeBlock{}); err != nil {
		t.Fatal(err)
	}

	res := <-resultCh
	if res.err != nil {
		t.Fatal(res.err)
	}
	c := res.c
	defer c.Close()

	info, err := c.GetInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Model != "Test" || info.Name != "Test Hub" {
		t.Fatalf("got %#v", info)
	}

	mi, err := c.GetMatrixInfo(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if mi.InputCount != 4 || mi.OutputCount != 2 {
		t.Fatalf("got %#v", mi)
	}

	labelsCh := make(chan []router.Label, 1)
	errCh := make(chan error, 1)
	go func() {
		labels, err := c.GetInputLabels(context.Background(), 0)
		if err != nil {
			errCh <- err
			return
		}
		labelsCh <- labels
	}()

	msg, err := dev.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := msg.(*videohub.InputLabelsBlock); !ok {
		t.Fatalf("expected a label request, got %T", msg)
	}
	if err := dev.Send(&videohub.InputLabelsBlock{Labels: videohub.Labels{0: "Cam 1", 1: "Cam 2"}}); err != nil {
		t.Fatal(err)
	}

	select {
	case labels := <-labelsCh:
		if len(labels) != 2 {
			t.Fatalf("got %#v", labels)
		}
	case err := <-errCh:
		t.Fatal(err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for input labels")
	}

	updateDone := make(chan error, 1)
	go func() {
		updateDone <- c.UpdateOutputLabels(context.Background(), 0, []router.Label{{ID: 0, Name: "Program"}})
	}()

	msg, err = dev.Recv()
	if err != nil {
		t.Fatal(err)
	}
	ol, ok := msg.(*videohub.OutputLabelsBlock)
	if !ok {
		t.Fatalf("expected an output label write, got %T", msg)
	}
	if ol.Labels[0] != "Program" {
		t.Fatalf("got %#v", ol.Labels)
	}
	if err := dev.Send(&videohub.AckBlock{}); err != nil {
		t.Fatal(err)
	}
	if err := <-updateDone; err != nil {
		t.Fatal(err)
	}

	out, err := c.GetOutputLabels(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, l := range out {
		if l.ID == 0 && l.Name == "Program" {
			found = true
		}
	}
	if !found {
		t.Fatalf("write-through update not reflected in cache without a round trip: %#v", out)
	}
}

func TestClient_RejectedUpdateReturnsErrRejected(t *testing.T) {
	l, err := videohub.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	resultCh := make(chan *client.Client, 1)
	go func() {
		c, err := client.Connect(context.Background(), l.Addr().String(), zerolog.Nop())
		if err != nil {
			t.Error(err)
			return
		}
		resultCh <- c
	}()

	dev, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	dev.Send(&videohub.PreambleBlock{Version: videohub.VersionNumber{Major: 2, Minor: 7}})
	dev.Send(&videohub.DeviceInfoBlock{Present: videohub.PresenceYes, VideoInputs: 2, VideoOutputs: 2})
	dev.Send(&videohub.EndPreludeBlock{})

	c := <-resultCh
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.UpdateInputLabels(context.Background(), 0, []router.Label{{ID: 0, Name: "x"}})
	}()

	if _, err := dev.Recv(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Send(&videohub.NakBlock{}); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errCh:
		if err != client.ErrRejected {
			t.Fatalf("got %v, want ErrRejected", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}
