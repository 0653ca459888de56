package crypto

import (
	"encoding/hex"
	"errors"
	"strings"
)

// AddressLength is the length of an EVM-style account address.
const AddressLength = 20

// Address is a 20-byte wallet account address, derived the same way an
// Ethereum address is: the low 20 bytes of Keccak256(uncompressed pubkey).
type Address [AddressLength]byte

var ErrInvalidAddress = errors.New("crypto: invalid address")

// BytesToAddress right-aligns b into an Address, truncating from the left
// if b is longer than AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress decodes a "0x"-prefixed hex address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != AddressLength*2 {
		return Address{}, ErrInvalidAddress
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, ErrInvalidAddress
	}
	return BytesToAddress(b), nil
}

// Hex renders the address with an EIP-55 mixed-case checksum.
func (a Address) Hex() string {
	unchecksummed := hex.EncodeToString(a[:])
	digest := Keccak256([]byte(unchecksummed))

	out := make([]byte, len(unchecksummed))
	for i, c := range unchecksummed {
		if c >= '0' && c <= '9' {
			out[i] = byte(c)
			continue
		}
		hashByte := digest[i/2]
		if i%2 == 0 {
			hashByte >>= 4
		} else {
			hashByte &= 0xf
		}
		if hashByte >= 8 {
			out[i] = byte(c - 'a' + 'A')
		} else {
			out[i] = byte(c)
		}
	}
	return "0x" + string(out)
}

func (a Address) String() string { return a.Hex() }

func (a Address) Bytes() []byte { return a[:] }

// PubkeyToAddress derives a wallet address from an uncompressed secp256k1
// public key (65 bytes, 0x04 prefix) the same way Ethereum does: the low
// 20 bytes of Keccak256 of the 64-byte X||Y coordinate pair.
func PubkeyToAddress(uncompressed []byte) (Address, error) {
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return Address{}, ErrInvalidAddress
	}
	return BytesToAddress(Keccak256(uncompressed[1:])), nil
}
