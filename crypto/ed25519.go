// Package crypto provides the cryptographic primitives OpChan needs to
// verify delegated device keys and wallet signatures: Ed25519 for device
// keys, secp256k1 personal-sign recovery for wallet keys, and Keccak256
// for address derivation.
package crypto

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"errors"
)

const (
	PublicKeySize  = stded25519.PublicKeySize
	PrivateKeySize = stded25519.PrivateKeySize
	SignatureSize  = stded25519.SignatureSize
	SeedSize       = stded25519.SeedSize
)

type (
	Ed25519PublicKey  = stded25519.PublicKey
	Ed25519PrivateKey = stded25519.PrivateKey
)

var ErrInvalidEd25519Key = errors.New("crypto: invalid ed25519 key")

// GenerateEd25519Key creates a new device keypair.
func GenerateEd25519Key() (Ed25519PublicKey, Ed25519PrivateKey, error) {
	return stded25519.GenerateKey(rand.Reader)
}

// SignEd25519 signs msg with an ephemeral device key.
func SignEd25519(priv Ed25519PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrInvalidEd25519Key
	}
	return stded25519.Sign(priv, msg), nil
}

// VerifyEd25519 checks a device-key signature over msg.
func VerifyEd25519(pub Ed25519PublicKey, msg, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return stded25519.Verify(pub, msg, sig)
}
