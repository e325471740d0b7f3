package mock

import (
	"context"
	"testing"
	"time"

	"bridgekit.dev/videohub/router"
)

func TestBackend_ConstructorAndBounds(t *testing.T) {
	b := New(router.Info{Model: "Mock", Name: "test"}, 1, 4, 4)

	alive, err := b.IsAlive(context.Background())
	if err != nil || !alive {
		t.Fatalf("IsAlive() = %v, %v, want true, nil", alive, err)
	}

	if _, err := b.GetMatrixInfo(context.Background(), 1); err == nil {
		t.Fatal("expected out-of-range error for matrix 1")
	}

	dims, err := b.GetMatrixInfo(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if dims.InputCount != 4 || dims.OutputCount != 4 {
		t.Fatalf("got %#v", dims)
	}
}

func TestBackend_PatchBoundsAndRouting(t *testing.T) {
	b := New(router.Info{}, 1, 2, 2)
	ctx := context.Background()

	err := b.UpdateRoutes(ctx, 0, []router.Patch{{ToOutput: 5, FromInput: 0}})
	if _, ok := err.(*router.OutOfRangeError); !ok {
		t.Fatalf("expected OutOfRangeError for bad output, got %v", err)
	}

	err = b.UpdateRoutes(ctx, 0, []router.Patch{{ToOutput: 0, FromInput: 5}})
	if _, ok := err.(*router.OutOfRangeError); !ok {
		t.Fatalf("expected OutOfRangeError for bad input, got %v", err)
	}

	if err := b.UpdateRoutes(ctx, 0, []router.Patch{{ToOutput: 1, FromInput: 0}}); err != nil {
		t.Fatal(err)
	}
	routes, err := b.GetRoutes(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, p := range routes {
		if p.ToOutput == 1 && p.FromInput == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("route not applied: %#v", routes)
	}
}

func TestBackend_EventStream(t *testing.T) {
	b := New(router.Info{}, 1, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.EventStream(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.UpdateRoutes(ctx, 0, []router.Patch{{ToOutput: 0, FromInput: 1}}); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Kind != router.EventRouteUpdate {
			t.Fatalf("got event kind %v, want EventRouteUpdate", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for route update event")
	}
}
