package examplewallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opchan/core/crypto"
)

func TestFromMnemonicDeterministic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)
	a, err := FromMnemonic(mnemonic, "")
	require.NoError(t, err)
	b, err := FromMnemonic(mnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, a.Address, b.Address)
}

func TestSignWithWalletRoundTrip(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	msg := []byte("opchan delegation auth message")
	sig, err := w.SignWithWallet(msg)
	require.NoError(t, err)
	assert.True(t, crypto.VerifyWalletSignature(w.Address, msg, sig))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	path := t.TempDir() + "/" + KeyFileName(w.Address)
	require.NoError(t, w.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, w.Address, loaded.Address)

	msg := []byte("round trip check")
	sig, err := loaded.SignWithWallet(msg)
	require.NoError(t, err)
	assert.True(t, crypto.VerifyWalletSignature(w.Address, msg, sig))
}
