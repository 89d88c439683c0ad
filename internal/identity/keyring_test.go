package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

func TestSealOpen(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sealed, err := Seal(key, "correct horse")
	require.NoError(t, err)

	opened, err := Open(sealed, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(key), crypto.FromECDSA(opened))

	_, err = Open(sealed, "battery staple")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = Seal(key, "")
	assert.Error(t, err)
}

func TestKeyring(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	kr := NewKeyring(dir, "pw")

	signer, err := kr.Generate()
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, signer.Identity().String()+keyFileSuffix))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ids, err := kr.List()
	require.NoError(t, err)
	assert.Equal(t, []domain.Identity{signer.Identity()}, ids)

	loaded, err := kr.Load(signer.Identity())
	require.NoError(t, err)
	assert.Equal(t, signer.Identity(), loaded.Identity())

	_, err = kr.Load(domain.MustIdentity("0x00000000000000000000000000000000000000cc"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestKeyringSource_CachesOpenedKeys(t *testing.T) {
	kr := NewKeyring(t.TempDir(), "pw")
	signer, err := kr.Generate()
	require.NoError(t, err)

	src := NewKeyringSource(kr)
	first, err := src.SignerFor(context.Background(), signer.Identity())
	require.NoError(t, err)
	second, err := src.SignerFor(context.Background(), signer.Identity())
	require.NoError(t, err)
	assert.Same(t, first, second)
}
