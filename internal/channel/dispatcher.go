package channel

import (
	"context"
	"log/slog"
	"sync"
)

// Handler turns an inbound message into a reply. It must not return an
// error: the agent core degrades internally and always produces a reply.
type Handler func(ctx context.Context, msg Inbound) Outbound

// Dispatcher decouples event acknowledgement from processing: adapters
// enqueue and return immediately, a bounded worker pool runs the reasoning
// cycles and routes replies back through the adapter registry.
type Dispatcher struct {
	handler  Handler
	adapters *AdapterRegistry
	workers  int

	jobs chan Inbound
	wg   sync.WaitGroup
}

func NewDispatcher(handler Handler, adapters *AdapterRegistry, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 10
	}
	return &Dispatcher{
		handler:  handler,
		adapters: adapters,
		workers:  workers,
		jobs:     make(chan Inbound, workers*4),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	slog.Info("dispatcher started", "workers", d.workers)
}

// Enqueue hands a message to the pool. Blocks only when the buffer is full,
// which keeps a slow agent from dropping platform retries silently.
func (d *Dispatcher) Enqueue(msg Inbound) {
	d.jobs <- msg
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.jobs:
			d.process(ctx, msg)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, msg Inbound) {
	reply := d.handler(ctx, msg)
	adapter, ok := d.adapters.Get(reply.Destination)
	if !ok {
		slog.Error("no adapter for destination", "destination", reply.Destination, "channel", reply.ChannelID)
		return
	}
	if err := adapter.Send(reply); err != nil {
		slog.Error("failed to send reply", "destination", reply.Destination, "channel", reply.ChannelID, "error", err)
	}
}
