package bus

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func newTestSubscription(buffer int) *Subscription {
	return &Subscription{
		member: "TranscriptChunk",
		name:   "com.voiceforge.App.TranscriptChunk",
		path:   "/com/voiceforge/App",
		ch:     make(chan *dbus.Signal, buffer),
	}
}

func TestNextFiltersForeignSignals(t *testing.T) {
	sub := newTestSubscription(4)
	sub.ch <- &dbus.Signal{Path: "/com/voiceforge/App", Name: "com.voiceforge.App.AnalysisDone", Body: []any{"done"}}
	sub.ch <- &dbus.Signal{Path: "/other", Name: "com.voiceforge.App.TranscriptChunk", Body: []any{"wrong path"}}
	sub.ch <- nil
	sub.ch <- &dbus.Signal{Sender: ":1.7", Path: "/com/voiceforge/App", Name: "com.voiceforge.App.TranscriptChunk", Body: []any{"hello"}}

	body, ok := sub.Next(context.Background())
	if !ok {
		t.Fatal("expected a signal")
	}
	if len(body) != 1 || body[0] != "hello" {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestNextPreservesDeliveryOrder(t *testing.T) {
	sub := newTestSubscription(8)
	for i := uint32(0); i < 5; i++ {
		sub.ch <- &dbus.Signal{Path: sub.path, Name: sub.name, Body: []any{i}}
	}
	for want := uint32(0); want < 5; want++ {
		body, ok := sub.Next(context.Background())
		if !ok || body[0] != want {
			t.Fatalf("expected %d, got %#v ok=%v", want, body, ok)
		}
	}
}

func TestNextEndsWhenChannelCloses(t *testing.T) {
	sub := newTestSubscription(1)
	close(sub.ch)
	if _, ok := sub.Next(context.Background()); ok {
		t.Fatal("expected stream termination")
	}
}

func TestNextEndsWithContext(t *testing.T) {
	sub := newTestSubscription(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := sub.Next(ctx); ok {
		t.Fatal("expected context cancellation to end Next")
	}
}
