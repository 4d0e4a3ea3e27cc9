package events

import (
	"testing"
	"time"
)

func TestPublishSubscribeDelivers(t *testing.T) {
	bus := NewBus()
	sub := Subscribe(bus, SessionStateTopic)
	defer sub.Close()

	Publish(bus, SessionStateTopic, SessionState{Phase: PhaseRunning})

	select {
	case got := <-sub.C:
		if got.Phase != PhaseRunning {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestPublishOnNilBusIsNoop(t *testing.T) {
	Publish[SessionState](nil, SessionStateTopic, SessionState{Phase: PhaseFailed})
}

func TestSubscribeOnNilBusYieldsClosedChannel(t *testing.T) {
	sub := Subscribe(nil, SessionStateTopic)
	if _, ok := <-sub.C; ok {
		t.Fatal("expected a closed channel for a nil bus")
	}
}

func TestDropOldestUnderBackpressure(t *testing.T) {
	bus := NewBus()
	sub := Subscribe(bus, SessionStateTopic)
	defer sub.Close()

	for i := 0; i < subscriberBuffer+10; i++ {
		Publish(bus, SessionStateTopic, SessionState{Detail: string(rune('a' + i%26))})
	}

	time.Sleep(50 * time.Millisecond)

	count := 0
	for {
		select {
		case <-sub.C:
			count++
		default:
			if count == 0 {
				t.Fatal("expected at least some delivered events")
			}
			if count > subscriberBuffer {
				t.Fatalf("buffer exceeded: got %d, want <= %d", count, subscriberBuffer)
			}
			return
		}
	}
}

func TestMultipleSubscribersEachGetTheirOwnCopy(t *testing.T) {
	bus := NewBus()
	subA := Subscribe(bus, SessionStateTopic)
	subB := Subscribe(bus, SessionStateTopic)
	defer subA.Close()
	defer subB.Close()

	Publish(bus, SessionStateTopic, SessionState{Phase: PhaseHandshaking})

	for _, sub := range []*Subscription[SessionState]{subA, subB} {
		select {
		case got := <-sub.C:
			if got.Phase != PhaseHandshaking {
				t.Fatalf("got %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := Subscribe(bus, SessionStateTopic)
	sub.Close()
	sub.Close() // idempotent

	Publish(bus, SessionStateTopic, SessionState{Phase: PhaseClosed})

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("expected channel to be closed, not deliver a value")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected channel to close promptly")
	}
}
