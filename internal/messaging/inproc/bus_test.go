package inproc

import (
	"testing"

	"scoby_collective/internal/domain"
)

func TestPublishFansOut(t *testing.T) {
	b := New(4)
	first := b.Subscribe("first")
	second := b.Subscribe("second")

	b.Publish(domain.Event{Kind: domain.EventWorkerAdded, WorkerID: "w1"})

	for name, ch := range map[string]<-chan domain.Event{"first": first, "second": second} {
		select {
		case ev := <-ch:
			if ev.Kind != domain.EventWorkerAdded || ev.WorkerID != "w1" {
				t.Fatalf("%s: unexpected event %+v", name, ev)
			}
		default:
			t.Fatalf("%s: no event delivered", name)
		}
	}
}

func TestSubscribeSameNameReturnsSameChannel(t *testing.T) {
	b := New(4)
	a := b.Subscribe("mon")
	c := b.Subscribe("mon")
	b.Publish(domain.Event{Kind: domain.EventRebalanced})
	if len(a) != 1 || len(c) != 1 {
		t.Fatalf("same name should share one channel: %d vs %d", len(a), len(c))
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New(2)
	ch := b.Subscribe("slow")
	for i := 0; i < 5; i++ {
		b.Publish(domain.Event{Kind: domain.EventWorkerUpdated})
	}
	if len(ch) != 2 {
		t.Fatalf("overflow should drop, not block: buffered %d", len(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(4)
	ch := b.Subscribe("gone")
	b.Unsubscribe("gone")
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	b.Publish(domain.Event{Kind: domain.EventWorkerAdded})
	b.Unsubscribe("gone")
}
