package secret

import (
	"encoding/base64"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncrypter(t *testing.T) StringEncrypter {
	t.Helper()
	enc, err := NewStringEncrypter("test-secret-key-with-enough-length!!")
	require.NoError(t, err)
	return enc
}

// randomPrintable returns a printable-ASCII string of length n.
func randomPrintable(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(0x20 + r.Intn(0x7f-0x20))
	}
	return string(b)
}

func TestRoundTrip_PrintableASCII(t *testing.T) {
	enc := newTestEncrypter(t)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		x := randomPrintable(r, r.Intn(64))

		ct, err := enc.Encrypt(x)
		require.NoError(t, err)

		pt, err := enc.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, x, pt)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	enc := newTestEncrypter(t)

	a, err := enc.Encrypt("secret")
	require.NoError(t, err)
	b, err := enc.Encrypt("secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "each encryption should use a fresh nonce")
}

func TestDecrypt_Garbage(t *testing.T) {
	enc := newTestEncrypter(t)

	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("abc")),
		"random":     base64.StdEncoding.EncodeToString(make([]byte, 64)),
	}
	for name, ct := range cases {
		t.Run(name, func(t *testing.T) {
			pt, err := enc.Decrypt(ct)
			assert.ErrorIs(t, err, ErrEncryption)
			assert.Empty(t, pt)
		})
	}
}

func TestDecrypt_KeyMismatch(t *testing.T) {
	enc := newTestEncrypter(t)
	other, err := NewStringEncrypter("a-completely-different-secret-value")
	require.NoError(t, err)

	ct, err := enc.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(ct)
	assert.ErrorIs(t, err, ErrEncryption)
}

func TestEmptyString(t *testing.T) {
	enc := newTestEncrypter(t)

	ct, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, ct)

	pt, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, pt)
}

func TestNewStringEncrypter_EmptySecret(t *testing.T) {
	_, err := NewStringEncrypter("")
	assert.ErrorIs(t, err, ErrEncryption)
}
