package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opchan/core/crypto"
	"github.com/opchan/core/delegation"
	"github.com/opchan/core/forum"
	"github.com/opchan/core/identity"
	"github.com/opchan/core/replica"
	"github.com/opchan/core/transport/memtransport"
)

// ensStubResolver resolves a single known address to a fixed ENS name,
// so CreateCell's EnsVerified requirement can be exercised without a
// real ENS backend.
type ensStubResolver struct {
	address string
	name    string
}

func (r ensStubResolver) Resolve(ctx context.Context, address string) (string, string, error) {
	// identity.Resolver.Get normalizes to lowercase before calling
	// here, but r.address is seeded from the checksummed addr.Hex() —
	// compare case-insensitively (spec.md §3/§9).
	if strings.EqualFold(address, r.address) {
		return r.name, "", nil
	}
	return "", "", nil
}

func newTestClient(t *testing.T, bus *memtransport.Bus, resolver identity.NameResolver) *Client {
	t.Helper()
	tr := memtransport.New(bus)
	c, err := Open(context.Background(), Config{
		Transport:    tr,
		NameResolver: resolver,
	})
	if err != nil {
		t.Fatalf("open client: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
		tr.Close()
	})
	return c
}

func awaitPost(t *testing.T, rep *replica.Replica, postID string) *replica.Post {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if p := rep.Post(postID); p != nil {
			return p
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for post %s to replicate", postID)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

// TestClientEndToEndReplication wires two clients over the same
// memtransport bus and exercises the create-cell/create-post/replicate
// path end to end (spec.md §8 scenario 1), confirming client.Open's
// single-shared-store wiring and the transport receive callback both
// function together.
func TestClientEndToEndReplication(t *testing.T) {
	bus := memtransport.NewBus()

	walletPriv, err := crypto.GenerateWalletKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	addr, err := crypto.PubkeyToAddress(walletPriv.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("pubkey to address: %v", err)
	}
	resolver := ensStubResolver{address: addr.Hex(), name: "alice.eth"}

	a := newTestClient(t, bus, resolver)
	b := newTestClient(t, bus, resolver)

	signWithWallet := func(msg []byte) ([]byte, error) {
		return crypto.SignPersonal(walletPriv, msg)
	}
	if _, err := a.Delegation.CreateWalletDelegation(addr.Hex(), delegation.Duration30Days*time.Millisecond, signWithWallet); err != nil {
		t.Fatalf("create wallet delegation: %v", err)
	}

	user := forum.CurrentUser{Address: addr.Hex(), Authenticated: true}

	cellEnv, err := a.Forum.CreateCell(context.Background(), user, "general", "General discussion", "")
	if err != nil {
		t.Fatalf("create cell: %v", err)
	}

	postEnv, err := a.Forum.CreatePost(context.Background(), user, cellEnv.ID, "Hello", "World")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	replicated := awaitPost(t, b.Replica, postEnv.ID)
	if replicated.Title != "Hello" || replicated.Body != "World" {
		t.Fatalf("unexpected replicated post: %+v", replicated)
	}
	if b.Replica.Cell(cellEnv.ID) == nil {
		t.Fatal("expected cell to have replicated to b before the post referencing it")
	}
}
