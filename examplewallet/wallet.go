// Package examplewallet is a demonstration wallet signer: a BIP-39
// mnemonic, BIP-32 derivation down to a single secp256k1 key, and a
// plaintext JSON keyfile, enough to drive client.Config.Transport-free
// wallet-delegation flows in cmd/opchan and the integration tests.
// Grounded on the teacher's cmd/toskey (mnemonic.go's
// generateMnemonic/deriveECDSAFromMnemonic/deriveBIP32Master/
// deriveBIP32Child) and accounts/keystore/key.go (newKeyFromECDSA,
// plainKeyJSON, keyFileName) — see DESIGN.md. Unlike the teacher's
// keystore, this package never encrypts: it is a demo signer, not a
// production key vault (spec.md's Non-goals exclude wallet custody from
// OpChan's own scope; whatever signs the delegation auth message is
// external to the core, per spec.md §1).
package examplewallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/opchan/core/crypto"
)

const (
	defaultMnemonicBits = 128
	hdHardenedOffset    = uint32(0x80000000)
)

// DefaultDerivationPath is the only path this package derives: a single
// account, matching the teacher's defaultHDPath.
var DefaultDerivationPath = []uint32{44 | hdHardenedOffset, 60 | hdHardenedOffset, 0 | hdHardenedOffset, 0, 0}

// Wallet is one derived secp256k1 keypair plus its address.
type Wallet struct {
	ID      uuid.UUID
	Address crypto.Address
	priv    *btcec.PrivateKey
}

// GenerateMnemonic returns a fresh BIP-39 mnemonic of defaultMnemonicBits
// of entropy.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(defaultMnemonicBits)
	if err != nil {
		return "", fmt.Errorf("examplewallet: generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives a Wallet from mnemonic/passphrase along
// DefaultDerivationPath.
func FromMnemonic(mnemonic, passphrase string) (*Wallet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("examplewallet: invalid mnemonic: %w", err)
	}
	key, chainCode, err := deriveBIP32Master(seed)
	if err != nil {
		return nil, err
	}
	for _, index := range DefaultDerivationPath {
		key, chainCode, err = deriveBIP32Child(key, chainCode, index)
		if err != nil {
			return nil, err
		}
	}
	return newWallet(key)
}

// Generate creates a brand-new Wallet from OS randomness, bypassing
// mnemonic derivation entirely (useful for throwaway test wallets).
func Generate() (*Wallet, error) {
	priv, err := crypto.GenerateWalletKey()
	if err != nil {
		return nil, err
	}
	return newWallet(priv.Serialize())
}

func newWallet(privBytes []byte) (*Wallet, error) {
	priv, pub := btcec.PrivKeyFromBytes(privBytes)
	addr, err := crypto.PubkeyToAddress(pub.SerializeUncompressed())
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("examplewallet: generate id: %w", err)
	}
	return &Wallet{ID: id, Address: addr, priv: priv}, nil
}

// SignWithWallet matches delegation.SignWithWallet: it signs message
// with the personal-sign encoding, the callback CreateWalletDelegation
// invokes to obtain the wallet's authorization signature.
func (w *Wallet) SignWithWallet(message []byte) ([]byte, error) {
	return crypto.SignPersonal(w.priv, message)
}

// plainKeyFile mirrors the teacher's plainKeyJSON shape, minus the
// signer-type discriminant OpChan doesn't need (wallets here are always
// secp256k1).
type plainKeyFile struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privatekey"`
	ID         string `json:"id"`
	Version    int    `json:"version"`
}

const keyFileVersion = 1

// Save writes w to path as plaintext JSON, following the teacher's
// atomic-temp-file-then-rename write pattern.
func (w *Wallet) Save(path string) error {
	jStruct := plainKeyFile{
		Address:    w.Address.Hex(),
		PrivateKey: hex.EncodeToString(w.priv.Serialize()),
		ID:         w.ID.String(),
		Version:    keyFileVersion,
	}
	content, err := json.Marshal(jStruct)
	if err != nil {
		return fmt.Errorf("examplewallet: marshal keyfile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("examplewallet: create keystore dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("examplewallet: create temp keyfile: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("examplewallet: write temp keyfile: %w", err)
	}
	tmp.Close()
	return os.Rename(tmp.Name(), path)
}

// Load reads a keyfile written by Save.
func Load(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("examplewallet: read keyfile: %w", err)
	}
	var jStruct plainKeyFile
	if err := json.Unmarshal(raw, &jStruct); err != nil {
		return nil, fmt.Errorf("examplewallet: decode keyfile: %w", err)
	}
	privBytes, err := hex.DecodeString(jStruct.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("examplewallet: decode private key: %w", err)
	}
	id, err := uuid.Parse(jStruct.ID)
	if err != nil {
		return nil, fmt.Errorf("examplewallet: decode id: %w", err)
	}
	priv, pub := btcec.PrivKeyFromBytes(privBytes)
	addr, err := crypto.PubkeyToAddress(pub.SerializeUncompressed())
	if err != nil {
		return nil, err
	}
	if addr.Hex() != jStruct.Address && !strings.EqualFold(addr.Hex(), jStruct.Address) {
		return nil, fmt.Errorf("examplewallet: keyfile address mismatch")
	}
	return &Wallet{ID: id, Address: addr, priv: priv}, nil
}

// KeyFileName follows the teacher's UTC--<timestamp>-<address> keyfile
// naming convention.
func KeyFileName(addr crypto.Address) string {
	ts := time.Now().UTC()
	return fmt.Sprintf("UTC--%s--%s", ts.Format("2006-01-02T15-04-05.000000000Z"), hex.EncodeToString(addr.Bytes()))
}

func deriveBIP32Master(seed []byte) ([]byte, []byte, error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	if _, err := mac.Write(seed); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)
	key := append([]byte(nil), sum[:32]...)
	chainCode := append([]byte(nil), sum[32:]...)
	if err := validateScalar(key); err != nil {
		return nil, nil, fmt.Errorf("examplewallet: invalid bip32 master key: %w", err)
	}
	return key, chainCode, nil
}

func deriveBIP32Child(parentKey, parentChainCode []byte, index uint32) ([]byte, []byte, error) {
	if len(parentKey) != 32 || len(parentChainCode) != 32 {
		return nil, nil, fmt.Errorf("examplewallet: invalid bip32 parent key material")
	}

	data := make([]byte, 37)
	if index >= hdHardenedOffset {
		data[0] = 0x00
		copy(data[1:33], parentKey)
	} else {
		priv, pub := btcec.PrivKeyFromBytes(parentKey)
		_ = priv
		copy(data[:33], pub.SerializeCompressed())
	}
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, parentChainCode)
	if _, err := mac.Write(data); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)
	il, ir := sum[:32], sum[32:]

	curveN := btcec.S256().N
	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Sign() == 0 || ilInt.Cmp(curveN) >= 0 {
		return nil, nil, fmt.Errorf("examplewallet: invalid bip32 child scalar")
	}
	parentInt := new(big.Int).SetBytes(parentKey)
	childInt := new(big.Int).Add(ilInt, parentInt)
	childInt.Mod(childInt, curveN)
	if childInt.Sign() == 0 {
		return nil, nil, fmt.Errorf("examplewallet: invalid bip32 child key: zero")
	}

	childKey := make([]byte, 32)
	childBytes := childInt.Bytes()
	copy(childKey[32-len(childBytes):], childBytes)
	childChainCode := append([]byte(nil), ir...)
	return childKey, childChainCode, nil
}

func validateScalar(key []byte) error {
	if len(key) != 32 {
		return fmt.Errorf("invalid scalar length %d", len(key))
	}
	curveN := btcec.S256().N
	v := new(big.Int).SetBytes(key)
	if v.Sign() == 0 || v.Cmp(curveN) >= 0 {
		return fmt.Errorf("scalar out of range")
	}
	return nil
}
