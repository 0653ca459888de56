// Package transport declares OpChan's pub/sub boundary (spec.md §4.8):
// the core never implements the underlying transport itself, only the
// interface a concrete adapter (in-process bus, relay, or otherwise)
// must satisfy.
package transport

import "context"

// ReceiveFunc is invoked with a raw encoded envelope observed on the
// transport.
type ReceiveFunc func(raw []byte)

// HealthFunc is invoked whenever the transport's liveness changes.
type HealthFunc func(healthy bool)

// SyncFunc is invoked when the transport completes a sync phase,
// reporting the greatest timestamp it observed.
type SyncFunc func(lastSyncMs int64)

// StatusFunc reports the outcome of a single Send, for callers that want
// delivery confirmation (spec.md §4.8: "optional status_cb").
type StatusFunc func(status SendStatus)

// SendStatus is what StatusFunc receives.
type SendStatus struct {
	Delivered bool
	Err       error
}

// Transport is the full adapter interface (spec.md §4.8). Send alone
// (no status callback) is also what package identity/forum depend on
// through their own narrow Sender interfaces — any Transport
// implementation satisfies those for free.
type Transport interface {
	// Send is fire-and-report: no reply is required for correctness.
	Send(ctx context.Context, raw []byte) error
	// SendWithStatus is Send plus a delivery-status callback.
	SendWithStatus(ctx context.Context, raw []byte, statusCb StatusFunc) error
	OnReceive(fn ReceiveFunc) (unsubscribe func())
	OnHealth(fn HealthFunc) (unsubscribe func())
	OnSync(fn SyncFunc) (unsubscribe func())
	IsReady() bool
}
