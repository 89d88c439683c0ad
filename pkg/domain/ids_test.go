package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseIdentity_Invariants validates the parsing invariant:
// "identities are valid addresses in canonical lower-case form"
//
// Justification: Identities are compared across ledger reads, JWT subjects and
// request payloads; a casing mismatch would silently break ownership checks.
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("  ")
		require.Error(t, err)
	})

	t.Run("rejects non-address", func(t *testing.T) {
		_, err := ParseIdentity("alice")
		require.Error(t, err)
	})

	t.Run("normalizes checksum casing", func(t *testing.T) {
		id, err := ParseIdentity("0x52908400098527886E0F7030069857D2E4169EE7")
		require.NoError(t, err)
		assert.Equal(t, Identity("0x52908400098527886e0f7030069857d2e4169ee7"), id)
	})

	t.Run("equal ignores case", func(t *testing.T) {
		a := Identity("0x52908400098527886e0f7030069857d2e4169ee7")
		b := Identity("0x52908400098527886E0F7030069857D2E4169EE7")
		assert.True(t, a.Equal(b))
	})

	t.Run("zero address", func(t *testing.T) {
		id := MustIdentity("0x0000000000000000000000000000000000000000")
		assert.True(t, id.IsZeroAddress())
		assert.False(t, MustIdentity("0x52908400098527886e0f7030069857d2e4169ee7").IsZeroAddress())
	})
}

func TestParseRequestID(t *testing.T) {
	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseRequestID("0")
		require.Error(t, err)
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := ParseRequestID("abc")
		require.Error(t, err)
	})

	t.Run("accepts positive", func(t *testing.T) {
		id, err := ParseRequestID("42")
		require.NoError(t, err)
		assert.Equal(t, RequestID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestRoleFromLedger(t *testing.T) {
	assert.Equal(t, RoleStudent, RoleFromLedger("Student"))
	assert.Equal(t, RoleProvider, RoleFromLedger(" PROVIDER "))
	assert.Equal(t, RoleUnset, RoleFromLedger(""))
	assert.Equal(t, RoleUnset, RoleFromLedger("admin"))

	_, err := ParseRole("")
	require.Error(t, err)
	r, err := ParseRole("provider")
	require.NoError(t, err)
	assert.True(t, r.IsSet())
}
