package identity

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/pkg/domain"
)

func TestSignMessage_RoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewKeySigner(key)

	msg := []byte("certflow login nonce 42")
	sig, err := SignMessage(signer, msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := RecoverMessageSigner(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Identity(), recovered)
	assert.True(t, VerifyMessage(signer.Identity(), msg, sig))
}

func TestVerifyMessage_Rejects(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewKeySigner(key)
	sig, err := SignMessage(signer, []byte("original"))
	require.NoError(t, err)

	t.Run("tampered message", func(t *testing.T) {
		assert.False(t, VerifyMessage(signer.Identity(), []byte("tampered"), sig))
	})
	t.Run("other identity", func(t *testing.T) {
		other := domain.MustIdentity("0x00000000000000000000000000000000000000aa")
		assert.False(t, VerifyMessage(other, []byte("original"), sig))
	})
	t.Run("short signature", func(t *testing.T) {
		assert.False(t, VerifyMessage(signer.Identity(), []byte("original"), sig[:10]))
	})
}

func TestKeySignerFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))

	signer, err := KeySignerFromHex(hexKey)
	require.NoError(t, err)
	assert.Equal(t, NewKeySigner(key).Identity(), signer.Identity())

	_, err = KeySignerFromHex("not-a-key")
	assert.Error(t, err)
}

func TestAssertedSigner(t *testing.T) {
	id := domain.MustIdentity("0x00000000000000000000000000000000000000bb")
	s := NewAssertedSigner(id)
	assert.Equal(t, id, s.Identity())
	_, err := s.SignDigest(make([]byte, 32))
	assert.ErrorIs(t, err, ErrCannotSign)
}
