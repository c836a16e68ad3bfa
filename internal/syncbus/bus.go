package syncbus

import (
	"sync"
)

// Handler receives an event. Handlers run synchronously on the publisher's
// goroutine and must not block; anything slow belongs behind a channel.
type Handler func(Event)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is the in-process event channel. Publishing from the goroutine that
// just committed a resolution gives same-process views sub-poll latency
// regardless of Redis health.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventName][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[EventName][]subscription)}
}

// Subscribe registers fn for name and returns an unsubscribe func. The
// returned func is idempotent.
func (b *Bus) Subscribe(name EventName, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[name]
			for i, s := range list {
				if s.id == id {
					b.subs[name] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber of its name, in subscription
// order. A handler panic is not recovered; handlers own their safety.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	list := b.subs[ev.Name]
	b.mu.RUnlock()
	for _, s := range list {
		s.fn(ev)
	}
}
