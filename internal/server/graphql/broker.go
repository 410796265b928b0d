package graphql

import (
	"context"
	"sync"
)

// Broker fans published events out to live subscriptions. Slow subscribers
// miss events rather than blocking publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan interface{}]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan interface{}]struct{})}
}

// Subscribe returns a channel of events that is closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context) chan interface{} {
	ch := make(chan interface{}, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (b *Broker) Publish(v interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (b *Broker) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
