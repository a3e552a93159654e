package notify

import (
	"context"
	"sync"
)

// DeliverFunc handles one notification pulled off the dispatch queue.
type DeliverFunc func(ctx context.Context, n Notification)

// Dispatcher is a small worker pool that moves notification delivery off
// the refresh path. Delivery order within one refresh is not guaranteed;
// each notification carries its own dedupe id so consumers do not depend
// on ordering.
type Dispatcher struct {
	numWorkers int
	jobs       chan Notification
	deliver    DeliverFunc
	wg         sync.WaitGroup
}

func NewDispatcher(numWorkers, bufferSize int, deliver DeliverFunc) *Dispatcher {
	return &Dispatcher{
		numWorkers: numWorkers,
		jobs:       make(chan Notification, bufferSize),
		deliver:    deliver,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.jobs:
			if !ok {
				return
			}
			d.deliver(ctx, n)
		}
	}
}

// Submit queues a notification for delivery. Blocks when the buffer is
// full, which backpressures the refresh loop rather than dropping work.
// A cancelled context aborts the wait so shutdown cannot wedge on a
// full queue after the workers have exited.
func (d *Dispatcher) Submit(ctx context.Context, n Notification) {
	select {
	case d.jobs <- n:
	case <-ctx.Done():
	}
}

// Stop closes the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}
