package bus

import (
	"testing"

	"go.uber.org/zap"

	"github.com/meomirror/server/domain/entities"
)

func snapshotWithEvent(event string) entities.DeviceState {
	return entities.DeviceState{Device: "mirror-1", LastEvent: event}
}

func TestBus_SubscribeDeliversCurrentSnapshotFirst(t *testing.T) {
	b := NewBus(4, zap.NewNop())
	b.Publish(snapshotWithEvent("boot"))

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	select {
	case got := <-sub.Events():
		if got.LastEvent != "boot" {
			t.Errorf("expected initial snapshot with last_event boot, got %q", got.LastEvent)
		}
	default:
		t.Fatal("expected current snapshot queued immediately on subscribe")
	}
}

func TestBus_SubscribeBeforeFirstPublish(t *testing.T) {
	b := NewBus(4, zap.NewNop())

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	select {
	case <-sub.Events():
		t.Fatal("no snapshot published yet, queue should be empty")
	default:
	}
}

func TestBus_FanOutOrderingPerSubscriber(t *testing.T) {
	b := NewBus(8, zap.NewNop())
	b.Publish(snapshotWithEvent("initial"))

	subA := b.Subscribe()
	subB := b.Subscribe()
	defer b.Unsubscribe(subA)
	defer b.Unsubscribe(subB)

	for _, event := range []string{"one", "two", "three"} {
		b.Publish(snapshotWithEvent(event))
	}

	expected := []string{"initial", "one", "two", "three"}
	for name, sub := range map[string]*Subscriber{"A": subA, "B": subB} {
		for i, want := range expected {
			got := <-sub.Events()
			if got.LastEvent != want {
				t.Errorf("subscriber %s event %d: expected %q, got %q", name, i, want, got.LastEvent)
			}
		}
	}
}

func TestBus_PublishNeverBlocksOnFullQueue(t *testing.T) {
	b := NewBus(2, zap.NewNop())

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Far more publishes than the queue can hold. A blocking publish would
	// hang the test.
	for i := 0; i < 20; i++ {
		b.Publish(snapshotWithEvent(string(rune('a' + i))))
	}

	// Drop-oldest keeps the most recent snapshots; the last one published
	// must be the last one queued.
	var last entities.DeviceState
	drained := 0
	for {
		select {
		case s := <-sub.Events():
			last = s
			drained++
			continue
		default:
		}
		break
	}

	if drained != 2 {
		t.Errorf("expected queue depth 2 after overflow, drained %d", drained)
	}
	if last.LastEvent != string(rune('a'+19)) {
		t.Errorf("expected newest snapshot retained, got %q", last.LastEvent)
	}
}

func TestBus_UnsubscribeClosesQueue(t *testing.T) {
	b := NewBus(4, zap.NewNop())
	sub := b.Subscribe()

	b.Unsubscribe(sub)

	if _, ok := <-sub.Events(); ok {
		t.Error("expected closed queue after unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	b.Publish(snapshotWithEvent("after"))
}
