package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxRoundTrip(t *testing.T) {
	b := NewBox("test-passphrase")

	ct, err := b.Encrypt("app-specific-password")
	require.NoError(t, err)
	require.NotContains(t, ct, "app-specific-password")

	pt, err := b.Decrypt(ct)
	require.NoError(t, err)
	require.Equal(t, "app-specific-password", pt)
}

func TestBoxEncryptIsSalted(t *testing.T) {
	b := NewBox("test-passphrase")

	a, err := b.Encrypt("secret")
	require.NoError(t, err)
	c, err := b.Encrypt("secret")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestBoxWrongPassphrase(t *testing.T) {
	ct, err := NewBox("right").Encrypt("secret")
	require.NoError(t, err)

	_, err = NewBox("wrong").Decrypt(ct)
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestBoxRejectsGarbage(t *testing.T) {
	b := NewBox("k")

	_, err := b.Decrypt("not base64!!")
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = b.Decrypt("c2hvcnQ=")
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}
