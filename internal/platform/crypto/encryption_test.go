package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripWithHexKey(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.True(t, svc.Configured())

	enc, err := svc.EncryptString("1234567890")
	require.NoError(t, err)
	assert.NotContains(t, string(enc), "1234567890")

	plain, err := svc.DecryptString(enc)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", plain)
}

func TestPassphraseIsDerived(t *testing.T) {
	a, err := New("a passphrase that is not a key")
	require.NoError(t, err)
	b, err := New("a passphrase that is not a key")
	require.NoError(t, err)
	require.True(t, a.Configured())

	enc, err := a.EncryptString("ABCDE1234F")
	require.NoError(t, err)
	plain, err := b.DecryptString(enc)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", plain)
}

func TestShortKeyRejected(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	out, err := svc.EncryptString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	svc, err := New(strings.Repeat("cd", 32))
	require.NoError(t, err)
	enc, err := svc.EncryptString("secret")
	require.NoError(t, err)
	enc[len(enc)-1] ^= 0xff

	_, err = svc.DecryptString(enc)
	assert.Error(t, err)
}
