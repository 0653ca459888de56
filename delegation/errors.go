package delegation

import "errors"

var (
	// ErrNoActiveDelegation is returned when Sign is called before any
	// delegation has been created (Status reports this as a zero Status,
	// not as an error).
	ErrNoActiveDelegation = errors.New("delegation: no active delegation")
	// ErrDelegationExpired is returned by Sign when the active
	// delegation's expiry has passed. Previously signed messages remain
	// verifiable regardless (spec.md §3 Lifecycle).
	ErrDelegationExpired = errors.New("delegation: expired")
	// ErrWalletSignatureInvalid is returned when a freshly created
	// wallet delegation fails its own round-trip self-check.
	ErrWalletSignatureInvalid = errors.New("delegation: wallet signature does not verify against its own auth message")
	// ErrInvalidDelegationProof names a structurally malformed delegation
	// proof. Nothing in this package returns it: Verify and
	// VerifyWithReason report proof failures as a bool plus reason strings.
	ErrInvalidDelegationProof = errors.New("delegation: invalid delegation proof")
)
