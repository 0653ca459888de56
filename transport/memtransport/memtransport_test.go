package memtransport

import (
	"context"
	"testing"
	"time"
)

func TestSendDeliversToOtherClientsOnly(t *testing.T) {
	bus := NewBus()
	a := New(bus)
	b := New(bus)
	defer a.Close()
	defer b.Close()

	var gotA, gotB []byte
	a.OnReceive(func(raw []byte) { gotA = raw })
	b.OnReceive(func(raw []byte) { gotB = raw })

	if err := a.Send(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.After(time.Second)
	for gotB == nil {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for b to receive")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if string(gotB) != "hello" {
		t.Fatalf("expected b to receive 'hello', got %q", gotB)
	}
	if gotA != nil {
		t.Fatal("expected a not to receive its own send")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	a := New(bus)
	b := New(bus)
	defer a.Close()

	var count int
	unsub := b.OnReceive(func(raw []byte) { count++ })
	unsub()
	b.Close()

	if err := a.Send(context.Background(), []byte("x")); err != nil {
		t.Fatalf("send: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if count != 0 {
		t.Fatalf("expected no delivery after unsubscribe+close, got %d", count)
	}
}

func TestIsReadyAndHealthFireImmediately(t *testing.T) {
	bus := NewBus()
	a := New(bus)
	defer a.Close()

	if !a.IsReady() {
		t.Fatal("expected memtransport client to always be ready")
	}

	var healthy bool
	a.OnHealth(func(ok bool) { healthy = ok })
	if !healthy {
		t.Fatal("expected OnHealth to fire immediately with true")
	}
}
