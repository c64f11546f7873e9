package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/querysync/observe"
)

type event struct {
	entry Entry
	subs  []*subscription
}

// dispatcher delivers events one at a time, in the order they were queued.
// Events are queued while the Store lock is held and delivered after it is
// released, so listeners may call back into the Store. A listener that
// triggers further changes has those events appended to the same queue.
type dispatcher struct {
	logger observe.Logger

	mu       sync.Mutex
	queue    []event
	draining bool
}

func (d *dispatcher) enqueue(ev event) {
	if len(ev.subs) == 0 {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	d.mu.Unlock()
}

// drain delivers queued events unless another goroutine is already doing so.
func (d *dispatcher) drain() {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue[0] = event{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		for _, sub := range ev.subs {
			if sub.active.Load() {
				d.deliver(sub, ev.entry)
			}
		}

		d.mu.Lock()
	}
	d.draining = false
	d.mu.Unlock()
}

func (d *dispatcher) deliver(sub *subscription, e Entry) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error(context.Background(), "listener panicked",
				observe.F("key", e.Key.String()),
				observe.F("panic", fmt.Sprint(p)),
			)
		}
	}()
	sub.fn(e)
}
