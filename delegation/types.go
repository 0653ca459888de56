// Package delegation implements the two-tier delegated-signing trust
// model: a wallet key authorizes an ephemeral Ed25519 device key once,
// and the device key then signs every forum message (store.go persists
// the active delegation; manager.go creates, signs and verifies with
// it).
package delegation

import "github.com/opchan/core/message"

// Record is the persisted, active delegation: a device keypair plus,
// for wallet-backed delegations, the proof binding it to a wallet
// address.
type Record struct {
	DevicePublicKey  []byte                   `json:"device_public_key"`
	DevicePrivateKey []byte                   `json:"device_private_key"`
	Address          string                   `json:"address,omitempty"`    // wallet address, lowercased hex; empty for anonymous
	SessionID        string                   `json:"session_id,omitempty"` // UUIDv4; empty for wallet-backed
	Proof            *message.DelegationProof `json:"proof,omitempty"`
	CreatedAtMs      int64                    `json:"created_at_ms"`
	ExpiryTimestampMs int64                   `json:"expiry_timestamp_ms"`
}

// IsAnonymous reports whether this record has no wallet binding.
func (r *Record) IsAnonymous() bool {
	return r.Proof == nil
}

// AuthorID is the value that should populate Envelope.Author for
// messages signed by this delegation.
func (r *Record) AuthorID() string {
	if r.IsAnonymous() {
		return r.SessionID
	}
	return r.Address
}

// SignWithWallet is the caller-supplied callback that produces a wallet
// signature over an arbitrary byte string (spec.md §1: "the wallet" is
// an external collaborator).
type SignWithWallet func(message []byte) ([]byte, error)

// Status describes the active delegation's public state.
type Status struct {
	Present       bool
	Valid         bool
	TimeRemaining int64 // milliseconds, 0 if expired or absent
	PublicKey     []byte
	Address       string
	Proof         *message.DelegationProof
}

// Duration constants named in spec.md §4.2.
const (
	Duration7Days  = 7 * 24 * 60 * 60 * 1000
	Duration30Days = 30 * 24 * 60 * 60 * 1000
)
