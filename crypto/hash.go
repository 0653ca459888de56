package crypto

import "golang.org/x/crypto/sha3"

// HashLength is the length of a Keccak256 digest.
const HashLength = 32

// Hash is a 32-byte Keccak256 digest.
type Hash [HashLength]byte

// Keccak256 computes the Keccak256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash computes the Keccak256 digest and wraps it in a Hash.
func Keccak256Hash(data ...[]byte) Hash {
	var out Hash
	copy(out[:], Keccak256(data...))
	return out
}

func (h Hash) Bytes() []byte { return h[:] }
