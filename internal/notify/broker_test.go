package notify

import (
	"testing"
	"time"
)

func TestBrokerNotifiesSubscribers(t *testing.T) {
	b := NewBroker()

	wake, cancel := b.Subscribe(1)
	defer cancel()

	b.Notify(1)
	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("expected wakeup")
	}
}

func TestBrokerScopesByThread(t *testing.T) {
	b := NewBroker()

	wake, cancel := b.Subscribe(1)
	defer cancel()

	b.Notify(2)
	select {
	case <-wake:
		t.Fatal("wakeup from an unrelated thread")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBrokerNotifyNeverBlocks(t *testing.T) {
	b := NewBroker()

	wake, cancel := b.Subscribe(1)
	defer cancel()

	// Nobody is draining the channel; repeated notifies must still
	// return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Notify(1)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full waiter")
	}
	<-wake
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()

	wake, cancel := b.Subscribe(1)
	cancel()

	b.Notify(1)
	select {
	case <-wake:
		t.Fatal("wakeup after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}
