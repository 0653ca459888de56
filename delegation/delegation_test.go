package delegation

import (
	"testing"
	"time"

	"github.com/opchan/core/crypto"
	"github.com/opchan/core/message"
	"github.com/opchan/core/replica/storage/memstore"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(NewStore(memstore.New()), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func samplePostMsg() *message.Envelope {
	return &message.Envelope{
		Kind:        message.KindPost,
		ID:          "p1",
		TimestampMs: 1000,
		Post:        &message.PostPayload{CellID: "c1", Title: "Hi", Body: "World"},
	}
}

func TestAnonymousDelegationSignVerify(t *testing.T) {
	m := newManager(t)
	rec, err := m.CreateAnonymousDelegation(Duration7Days * time.Millisecond)
	if err != nil {
		t.Fatalf("create anonymous: %v", err)
	}
	if !message.IsAnonymousAuthor(rec.SessionID) {
		t.Fatalf("expected session id to be a UUIDv4, got %q", rec.SessionID)
	}

	signed, err := m.Sign(samplePostMsg())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.DelegationProof != nil {
		t.Fatal("anonymous message must not carry a delegation proof")
	}
	if ok, reasons := m.VerifyWithReason(signed); !ok {
		t.Fatalf("expected signed anonymous message to verify, reasons: %v", reasons)
	}

	tampered := *signed
	body := *tampered.Post
	body.Body = "World!"
	tampered.Post = &body
	if m.Verify(&tampered) {
		t.Fatal("expected tampered body to fail verification with original signature")
	}
}

func TestWalletDelegationRoundTrip(t *testing.T) {
	m := newManager(t)
	walletPriv, err := crypto.GenerateWalletKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	addr, err := crypto.PubkeyToAddress(walletPriv.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("pubkey to address: %v", err)
	}

	signWithWallet := func(msg []byte) ([]byte, error) {
		return crypto.SignPersonal(walletPriv, msg)
	}

	_, err = m.CreateWalletDelegation(addr.Hex(), Duration7Days*time.Millisecond, signWithWallet)
	if err != nil {
		t.Fatalf("create wallet delegation: %v", err)
	}

	signed, err := m.Sign(samplePostMsg())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.DelegationProof == nil {
		t.Fatal("expected wallet-backed message to carry a delegation proof")
	}
	if ok, reasons := m.VerifyWithReason(signed); !ok {
		t.Fatalf("expected signed wallet message to verify, reasons: %v", reasons)
	}
}

func TestDelegationBindingRejectsForeignDeviceKey(t *testing.T) {
	m := newManager(t)
	walletPriv, _ := crypto.GenerateWalletKey()
	addr, _ := crypto.PubkeyToAddress(walletPriv.PubKey().SerializeUncompressed())
	signWithWallet := func(msg []byte) ([]byte, error) {
		return crypto.SignPersonal(walletPriv, msg)
	}
	_, err := m.CreateWalletDelegation(addr.Hex(), Duration7Days*time.Millisecond, signWithWallet)
	if err != nil {
		t.Fatalf("create wallet delegation: %v", err)
	}
	signed, err := m.Sign(samplePostMsg())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A message signed by a different device key but carrying W's
	// delegation proof for the original key must fail verification
	// (spec.md §8 scenario 5).
	foreignPub, foreignPriv, _ := crypto.GenerateEd25519Key()
	forged := *signed
	payload, _ := message.CanonicalPayload(&forged)
	sig, _ := crypto.SignEd25519(foreignPriv, payload)
	forged.Signature = sig
	forged.DevicePubKey = foreignPub

	if m.Verify(&forged) {
		t.Fatal("expected verification to fail for mismatched device key")
	}
}

func TestDelegationExpiry(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	clock := base
	m, err := NewManager(NewStore(memstore.New()), func() time.Time { return clock })
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.CreateAnonymousDelegation(time.Millisecond); err != nil {
		t.Fatalf("create anonymous: %v", err)
	}
	clock = base.Add(time.Hour)
	if _, err := m.Sign(samplePostMsg()); err != ErrDelegationExpired {
		t.Fatalf("expected ErrDelegationExpired, got %v", err)
	}
}
