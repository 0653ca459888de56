package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/opchan/core/message"
	"github.com/opchan/core/replica"
	"github.com/opchan/core/replica/storage/memstore"
)

type stubResolver struct {
	calls int32
	name  string
	avatar string
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, address string) (string, string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return "", "", s.err
	}
	return s.name, s.avatar, nil
}

func newTestResolver(t *testing.T, nr NameResolver) *Resolver {
	t.Helper()
	rep, err := replica.Open(memstore.New())
	if err != nil {
		t.Fatalf("open replica: %v", err)
	}
	return NewResolver(rep, nr)
}

func TestGetAnonymousBypassesResolver(t *testing.T) {
	stub := &stubResolver{name: "should-not-be-used.eth"}
	r := newTestResolver(t, stub)

	id, err := r.Get(context.Background(), "3f1c1111-2222-4333-8444-a8b2a8b2a8b2", GetOptions{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if id.VerificationStatus != replica.VerificationAnonymous {
		t.Fatalf("expected Anonymous, got %v", id.VerificationStatus)
	}
	if atomic.LoadInt32(&stub.calls) != 0 {
		t.Fatal("expected resolver not to be called for an anonymous author")
	}
}

func TestGetCachesWithinFreshnessWindow(t *testing.T) {
	stub := &stubResolver{name: "alice.eth"}
	r := newTestResolver(t, stub)
	addr := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	first, err := r.Get(context.Background(), addr, GetOptions{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.VerificationStatus != replica.VerificationEnsVerified {
		t.Fatalf("expected EnsVerified, got %v", first.VerificationStatus)
	}
	if first.DisplayName != "alice.eth" {
		t.Fatalf("expected display name alice.eth, got %v", first.DisplayName)
	}

	if _, err := r.Get(context.Background(), addr, GetOptions{}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := atomic.LoadInt32(&stub.calls); got != 1 {
		t.Fatalf("expected exactly one resolver call (cached second time), got %d", got)
	}

	if _, err := r.Get(context.Background(), addr, GetOptions{Fresh: true}); err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if got := atomic.LoadInt32(&stub.calls); got != 2 {
		t.Fatalf("expected a second resolver call when Fresh=true, got %d", got)
	}
}

func TestGetCoalescesConcurrentRefreshes(t *testing.T) {
	stub := &stubResolver{name: "bob.eth"}
	r := newTestResolver(t, stub)
	addr := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := r.Get(context.Background(), addr, GetOptions{}); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&stub.calls); got > 2 {
		t.Fatalf("expected refreshes to coalesce, resolver called %d times for %d concurrent Gets", got, n)
	}
}

func TestGetDegradesOnResolutionFailure(t *testing.T) {
	stub := &stubResolver{err: errors.New("name service unavailable")}
	r := newTestResolver(t, stub)
	addr := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	id, err := r.Get(context.Background(), addr, GetOptions{})
	if err != nil {
		t.Fatalf("expected resolution failure to degrade rather than error, got %v", err)
	}
	if id.VerificationStatus != replica.VerificationWalletConnected {
		t.Fatalf("expected WalletConnected fallback, got %v", id.VerificationStatus)
	}
	if id.EnsName != "" {
		t.Fatalf("expected no ens_name on failure, got %v", id.EnsName)
	}
}

func TestDisplayNamePrefersCallSign(t *testing.T) {
	id := &replica.UserIdentity{
		Address:           "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		EnsName:           "alice.eth",
		CallSign:          "alice",
		DisplayPreference: message.DisplayPreferenceCallSign,
	}
	if got := deriveDisplayName(id); got != "alice" {
		t.Fatalf("expected call sign to win, got %v", got)
	}

	id.DisplayPreference = message.DisplayPreferenceAddress
	if got := deriveDisplayName(id); got != "alice.eth" {
		t.Fatalf("expected ens_name fallback, got %v", got)
	}
}
