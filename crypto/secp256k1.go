package crypto

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SignatureLength is the length of a recoverable secp256k1 signature:
// 32-byte R, 32-byte S, 1-byte recovery id.
const SignatureLength = 65

var (
	ErrInvalidSignatureLen = errors.New("crypto: invalid signature length")
	ErrInvalidRecoveryID   = errors.New("crypto: invalid recovery id")
	ErrSignatureVerifyFail = errors.New("crypto: signature does not recover to claimed address")
)

// personalSignPrefix mirrors the EIP-191 "personal_sign" wrapping that
// browser wallets apply before signing: "\x19Ethereum Signed Message:\n" +
// len(msg) + msg. Wallet delegation proofs use the same convention so a
// standard wallet's eth_sign / personal_sign call can produce them.
func personalSignHash(msg []byte) []byte {
	prefix := []byte("\x19Ethereum Signed Message:\n")
	length := []byte(itoa(len(msg)))
	return Keccak256(prefix, length, msg)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// RecoverAddress recovers the wallet address that produced sig (R||S||V,
// 65 bytes) over the personal-sign encoding of msg.
func RecoverAddress(msg, sig []byte) (Address, error) {
	if len(sig) != SignatureLength {
		return Address{}, ErrInvalidSignatureLen
	}
	if sig[64] > 1 && sig[64] < 27 {
		return Address{}, ErrInvalidRecoveryID
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	hash := personalSignHash(msg)

	// btcec's RecoverCompact expects [V||R||S] with V in [27,30].
	compact := make([]byte, SignatureLength)
	compact[0] = normalized[64] + 27
	copy(compact[1:], normalized[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return Address{}, ErrSignatureVerifyFail
	}
	return PubkeyToAddress(pub.SerializeUncompressed())
}

// VerifyWalletSignature checks that sig was produced by the holder of
// addr's private key over the personal-sign encoding of msg.
func VerifyWalletSignature(addr Address, msg, sig []byte) bool {
	recovered, err := RecoverAddress(msg, sig)
	if err != nil {
		return false
	}
	return recovered == addr
}

// GenerateWalletKey creates a new secp256k1 keypair for test/demo wallets.
func GenerateWalletKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// SignPersonal signs msg with priv using the personal-sign encoding and
// returns a 65-byte [R||S||V] signature with V in {0,1}.
func SignPersonal(priv *btcec.PrivateKey, msg []byte) ([]byte, error) {
	hash := personalSignHash(msg)
	sig, err := ecdsa.SignCompact(priv, hash, false)
	if err != nil {
		return nil, err
	}
	// SignCompact returns [V||R||S] with V in [27,30]; re-pack to [R||S||V-27].
	out := make([]byte, SignatureLength)
	copy(out[:64], sig[1:])
	out[64] = sig[0] - 27
	return out, nil
}
