// Package memtransport is an in-process pub/sub implementation of
// transport.Transport, for single-binary demos and tests where every
// peer lives in the same process. Grounded on agentidx.Indexer's
// subscribe/loop/quit channel shape (agentidx/indexer.go — see
// DESIGN.md, C9): each Client runs its own receive loop over a buffered
// channel the shared Bus publishes into.
package memtransport

import (
	"context"
	"sync"

	"github.com/opchan/core/transport"
)

// Bus fans a published message out to every subscribed Client except the
// publisher.
type Bus struct {
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan []byte]struct{})}
}

func (b *Bus) subscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *Bus) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, ch)
}

func (b *Bus) publish(raw []byte, from chan []byte) {
	b.mu.Lock()
	targets := make([]chan []byte, 0, len(b.subscribers))
	for ch := range b.subscribers {
		if ch != from {
			targets = append(targets, ch)
		}
	}
	b.mu.Unlock()
	for _, ch := range targets {
		ch <- raw
	}
}

// Client is one peer's view of a Bus.
type Client struct {
	bus   *Bus
	inbox chan []byte
	quit  chan struct{}

	receiveMu sync.Mutex
	receive   []transport.ReceiveFunc

	healthMu sync.Mutex
	health   []transport.HealthFunc

	syncMu sync.Mutex
	sync   []transport.SyncFunc
}

// New constructs a Client subscribed to bus and starts its receive loop.
func New(bus *Bus) *Client {
	c := &Client{bus: bus, inbox: make(chan []byte, 256), quit: make(chan struct{})}
	bus.subscribe(c.inbox)
	go c.loop()
	return c
}

// Close unsubscribes from the bus and stops the receive loop.
func (c *Client) Close() {
	close(c.quit)
	c.bus.unsubscribe(c.inbox)
}

func (c *Client) loop() {
	for {
		select {
		case raw := <-c.inbox:
			c.notifyReceive(raw)
		case <-c.quit:
			return
		}
	}
}

// Send publishes raw to every other Client on the same Bus.
func (c *Client) Send(ctx context.Context, raw []byte) error {
	c.bus.publish(raw, c.inbox)
	return nil
}

// SendWithStatus is Send plus an immediate synchronous status callback;
// an in-process bus has no notion of partial delivery failure.
func (c *Client) SendWithStatus(ctx context.Context, raw []byte, statusCb transport.StatusFunc) error {
	err := c.Send(ctx, raw)
	if statusCb != nil {
		statusCb(transport.SendStatus{Delivered: err == nil, Err: err})
	}
	return err
}

// OnReceive registers fn to be called for every message published by
// another Client on the Bus.
func (c *Client) OnReceive(fn transport.ReceiveFunc) func() {
	c.receiveMu.Lock()
	defer c.receiveMu.Unlock()
	c.receive = append(c.receive, fn)
	idx := len(c.receive) - 1
	return func() {
		c.receiveMu.Lock()
		defer c.receiveMu.Unlock()
		if idx < len(c.receive) {
			c.receive[idx] = nil
		}
	}
}

// OnHealth registers fn for liveness changes. A memtransport Client is
// always healthy once constructed, so fn fires once with true.
func (c *Client) OnHealth(fn transport.HealthFunc) func() {
	c.healthMu.Lock()
	c.health = append(c.health, fn)
	idx := len(c.health) - 1
	c.healthMu.Unlock()
	fn(true)
	return func() {
		c.healthMu.Lock()
		defer c.healthMu.Unlock()
		if idx < len(c.health) {
			c.health[idx] = nil
		}
	}
}

// OnSync registers fn for sync-phase completion. memtransport has no
// distinct sync phase (every peer is always live), so fn is never
// invoked; it is kept only to satisfy transport.Transport.
func (c *Client) OnSync(fn transport.SyncFunc) func() {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	c.sync = append(c.sync, fn)
	idx := len(c.sync) - 1
	return func() {
		c.syncMu.Lock()
		defer c.syncMu.Unlock()
		if idx < len(c.sync) {
			c.sync[idx] = nil
		}
	}
}

// IsReady always reports true: an in-process bus has no connection
// phase to wait on.
func (c *Client) IsReady() bool { return true }

func (c *Client) notifyReceive(raw []byte) {
	c.receiveMu.Lock()
	listeners := append([]transport.ReceiveFunc(nil), c.receive...)
	c.receiveMu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(raw)
		}
	}
}
