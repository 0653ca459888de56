package crypto

import "testing"

func TestEd25519SignVerify(t *testing.T) {
	pub, priv, err := GenerateEd25519Key()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("hello opchan")
	sig, err := SignEd25519(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyEd25519(pub, msg, sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifyEd25519(pub, []byte("tampered"), sig) {
		t.Fatal("expected tampered message to fail verification")
	}
}

func TestWalletSignRecover(t *testing.T) {
	priv, err := GenerateWalletKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr, err := PubkeyToAddress(priv.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("pubkey to address: %v", err)
	}
	msg := []byte("delegate device key abc123")
	sig, err := SignPersonal(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyWalletSignature(addr, msg, sig) {
		t.Fatal("expected wallet signature to verify")
	}
	if VerifyWalletSignature(addr, []byte("other message"), sig) {
		t.Fatal("expected mismatched message to fail verification")
	}
}

func TestAddressChecksum(t *testing.T) {
	a, err := ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := a.Hex(); got != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Fatalf("checksum mismatch: got %s", got)
	}
}
