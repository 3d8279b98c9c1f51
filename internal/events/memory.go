package events

import (
	"context"
	"fmt"
	"sync"
)

type memoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Event)
	closed   bool
	wg       sync.WaitGroup
}

// NewMemoryBus delivers events in-process. Each handler runs on its own
// goroutine; Close waits for in-flight deliveries.
func NewMemoryBus() Bus {
	return &memoryBus{handlers: make(map[int]func(Event))}
}

func (b *memoryBus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	for _, h := range b.handlers {
		b.wg.Add(1)
		go func(h func(Event)) {
			defer b.wg.Done()
			h(e)
		}(h)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
