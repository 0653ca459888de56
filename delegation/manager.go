package delegation

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opchan/core/crypto"
	"github.com/opchan/core/message"
)

// Manager implements spec.md §4.2's delegation operations: create
// wallet-backed or anonymous delegations, sign outgoing messages, and
// verify incoming ones. Grounded on teacher's accountsigner package
// (NormalizeSigner / AddressFromSigner's "normalize, derive, verify"
// pipeline shape), specialized to OpChan's fixed device-key=Ed25519 /
// wallet-key=secp256k1 split.
type Manager struct {
	mu     sync.Mutex
	store  *Store
	active *Record
	now    func() time.Time
}

// NewManager constructs a Manager over store, loading any persisted
// delegation immediately. now defaults to time.Now if nil (tests can
// inject a deterministic clock per spec.md §9).
func NewManager(store *Store, now func() time.Time) (*Manager, error) {
	if now == nil {
		now = time.Now
	}
	m := &Manager{store: store, now: now}
	rec, err := store.Load()
	if err != nil {
		return nil, err
	}
	m.active = rec
	return m, nil
}

func (m *Manager) nowMs() int64 {
	return m.now().UnixMilli()
}

// composeAuthMessage builds a human-readable authorization message
// embedding the device public key, wallet address, expiry and a nonce,
// per spec.md §4.2 / §6 ("Authorization message format").
func composeAuthMessage(devicePub []byte, walletAddress string, expiryMs int64, nonce string) string {
	return fmt.Sprintf(
		"OpChan wishes to authorize device key %s for wallet %s until %d (nonce %s)",
		hex.EncodeToString(devicePub), walletAddress, expiryMs, nonce,
	)
}

// CreateWalletDelegation generates a fresh device keypair, composes an
// authorization message, obtains a wallet signature via signWithWallet,
// and persists the record only after a round-trip self-check: the
// wallet signature must itself verify against the auth message.
func (m *Manager) CreateWalletDelegation(walletAddress string, duration time.Duration, signWithWallet SignWithWallet) (*Record, error) {
	walletAddress = strings.ToLower(walletAddress)
	addr, err := crypto.ParseAddress(walletAddress)
	if err != nil {
		return nil, fmt.Errorf("delegation: invalid wallet address: %w", err)
	}

	devicePub, devicePriv, err := crypto.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("delegation: generate device key: %w", err)
	}

	createdAt := m.nowMs()
	expiry := createdAt + duration.Milliseconds()
	nonce := uuid.New().String()
	authMessage := composeAuthMessage(devicePub, walletAddress, expiry, nonce)

	sig, err := signWithWallet([]byte(authMessage))
	if err != nil {
		return nil, fmt.Errorf("delegation: wallet signing failed: %w", err)
	}

	if !crypto.VerifyWalletSignature(addr, []byte(authMessage), sig) {
		return nil, ErrWalletSignatureInvalid
	}

	rec := &Record{
		DevicePublicKey:  append([]byte(nil), devicePub...),
		DevicePrivateKey: append([]byte(nil), devicePriv...),
		Address:          walletAddress,
		CreatedAtMs:      createdAt,
		ExpiryTimestampMs: expiry,
		Proof: &message.DelegationProof{
			AuthMessage:       authMessage,
			WalletSignature:   sig,
			ExpiryTimestampMs: expiry,
			WalletAddress:     walletAddress,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(rec); err != nil {
		return nil, err
	}
	m.active = rec
	return rec, nil
}

// CreateAnonymousDelegation generates a device keypair and a random
// session id, persists the record, and returns it (AuthorID() is the
// session id).
func (m *Manager) CreateAnonymousDelegation(duration time.Duration) (*Record, error) {
	devicePub, devicePriv, err := crypto.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("delegation: generate device key: %w", err)
	}
	createdAt := m.nowMs()
	rec := &Record{
		DevicePublicKey:  append([]byte(nil), devicePub...),
		DevicePrivateKey: append([]byte(nil), devicePriv...),
		SessionID:        uuid.New().String(),
		CreatedAtMs:      createdAt,
		ExpiryTimestampMs: createdAt + duration.Milliseconds(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(rec); err != nil {
		return nil, err
	}
	m.active = rec
	return rec, nil
}

// Clear removes the active delegation (spec.md §3: "replaced by
// clear()+create()").
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.active = nil
	return nil
}

// Sign loads the active delegation, refuses if expired, produces the
// canonical signing payload, signs it with the device key, and attaches
// signature, device public key, and (for wallet delegations) the
// delegation proof.
func (m *Manager) Sign(e *message.Envelope) (*message.Envelope, error) {
	m.mu.Lock()
	rec := m.active
	m.mu.Unlock()

	if rec == nil {
		return nil, ErrNoActiveDelegation
	}
	if m.nowMs() > rec.ExpiryTimestampMs {
		return nil, ErrDelegationExpired
	}

	e.Author = rec.AuthorID()
	e.Signature = nil
	e.DevicePubKey = nil
	e.DelegationProof = nil

	payload, err := message.CanonicalPayload(e)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.SignEd25519(rec.DevicePrivateKey, payload)
	if err != nil {
		return nil, err
	}

	e.Signature = sig
	e.DevicePubKey = append([]byte(nil), rec.DevicePublicKey...)
	if !rec.IsAnonymous() {
		e.DelegationProof = rec.Proof
	}
	return e, nil
}

// Verify reports whether e carries a valid signature (and, for
// wallet-backed authors, a valid delegation proof). It is a pure
// function of e; see VerifyWithReason for diagnostics.
func (m *Manager) Verify(e *message.Envelope) bool {
	ok, _ := m.VerifyWithReason(e)
	return ok
}

// VerifyWithReason implements spec.md §4.2 step 4's verification
// algorithm, returning the reasons for failure (empty on success).
func (m *Manager) VerifyWithReason(e *message.Envelope) (bool, []string) {
	var reasons []string

	if len(e.Signature) == 0 {
		reasons = append(reasons, "missing signature")
	}
	if len(e.DevicePubKey) != crypto.PublicKeySize {
		reasons = append(reasons, "missing or malformed device_pub_key")
	}
	if e.Author == "" {
		reasons = append(reasons, "missing author")
	}
	if len(reasons) > 0 {
		return false, reasons
	}

	signed := *e
	signed.Signature = nil
	signed.DevicePubKey = nil
	signed.DelegationProof = nil
	payload, err := message.CanonicalPayload(&signed)
	if err != nil {
		return false, []string{err.Error()}
	}
	if !crypto.VerifyEd25519(e.DevicePubKey, payload, e.Signature) {
		reasons = append(reasons, "device signature does not verify")
	}

	if e.DelegationProof != nil {
		proof := e.DelegationProof
		addr, err := crypto.ParseAddress(proof.WalletAddress)
		if err != nil {
			reasons = append(reasons, "malformed wallet_address in delegation proof")
			return false, reasons
		}
		if !crypto.VerifyWalletSignature(addr, []byte(proof.AuthMessage), proof.WalletSignature) {
			reasons = append(reasons, "wallet signature does not verify against auth_message")
		}
		devicePubHex := hex.EncodeToString(e.DevicePubKey)
		if !strings.Contains(proof.AuthMessage, devicePubHex) {
			reasons = append(reasons, "auth_message does not bind device_pub_key")
		}
		if !strings.Contains(proof.AuthMessage, strings.ToLower(proof.WalletAddress)) {
			reasons = append(reasons, "auth_message does not bind wallet_address")
		}
		if !strings.Contains(proof.AuthMessage, strconv.FormatInt(proof.ExpiryTimestampMs, 10)) {
			reasons = append(reasons, "auth_message does not bind expiry_timestamp_ms")
		}
		// Open Question resolved (spec.md §9): expiry vs message
		// timestamp ordering is NOT enforced here; historical messages
		// remain verifiable past their delegation's expiry.
	} else if !message.IsAnonymousAuthor(e.Author) {
		reasons = append(reasons, "anonymous author must be a UUIDv4")
	}

	return len(reasons) == 0, reasons
}

// Status reports the active delegation's public state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	rec := m.active
	m.mu.Unlock()

	if rec == nil {
		return Status{}
	}
	remaining := rec.ExpiryTimestampMs - m.nowMs()
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Present:       true,
		Valid:         remaining > 0,
		TimeRemaining: remaining,
		PublicKey:     append([]byte(nil), rec.DevicePublicKey...),
		Address:       rec.AuthorID(),
		Proof:         rec.Proof,
	}
}

// Active returns the current delegation record, or nil if none exists.
// Exposed read-only for package forum's permission checks.
func (m *Manager) Active() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
