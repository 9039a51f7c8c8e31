// Package notify fans out thread-activity wakeups to in-flight
// long-poll requests so new messages are delivered without waiting for
// the next poll tick.
package notify

import "sync"

type Broker struct {
	mu      sync.Mutex
	waiters map[int64]map[chan struct{}]struct{} // thread id → wake channels
}

func NewBroker() *Broker {
	return &Broker{waiters: make(map[int64]map[chan struct{}]struct{})}
}

// Subscribe registers interest in a thread and returns a wake channel
// plus a cancel func the caller must invoke when done waiting.
func (b *Broker) Subscribe(threadID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	set := b.waiters[threadID]
	if set == nil {
		set = make(map[chan struct{}]struct{})
		b.waiters[threadID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.waiters[threadID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.waiters, threadID)
			}
		}
	}
	return ch, cancel
}

// Notify nudges every waiter on the thread. A waiter whose buffer is
// already full has a wakeup pending, so the send is skipped.
func (b *Broker) Notify(threadID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.waiters[threadID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
