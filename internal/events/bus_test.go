package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(Event{Type: TabCreated, TabID: "tab_1"})

	select {
	case ev := <-ch:
		if ev.Type != TabCreated || ev.TabID != "tab_1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}
	if bus.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.Subscribers())
	}

	// Double unsubscribe is safe
	unsubscribe()
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus()

	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Overfill the subscriber buffer; publish must not block
	for i := 0; i < 200; i++ {
		bus.Publish(Event{Type: MessageStatus, MessageID: "m"})
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, u1 := bus.Subscribe()
	ch2, u2 := bus.Subscribe()
	defer u1()
	defer u2()

	bus.Publish(Event{Type: TabActivated, TabID: "tab_9"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.TabID != "tab_9" {
				t.Errorf("subscriber %d got wrong event: %+v", i, ev)
			}
		default:
			t.Errorf("subscriber %d should have received the event", i)
		}
	}
}
