package filecrypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/filecrypt"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := filecrypt.NewKey()
	require.NoError(t, err)
	iv, err := filecrypt.NewIV()
	require.NoError(t, err)

	plain := []byte("hello world")
	ct, err := filecrypt.Encrypt(plain, key, iv)
	require.NoError(t, err)

	back, err := filecrypt.Decrypt(ct, key, iv)
	require.NoError(t, err)
	assert.Equal(t, plain, back)
}

func TestDigestIsDeterministic(t *testing.T) {
	assert.Equal(t, filecrypt.Digest([]byte("hello world")), filecrypt.Digest([]byte("hello world")))
	assert.NotEqual(t, filecrypt.Digest([]byte("hello world")), filecrypt.Digest([]byte("hello worlds")))
}

func TestDecryptFailsOnWrongKey(t *testing.T) {
	key, err := filecrypt.NewKey()
	require.NoError(t, err)
	iv, err := filecrypt.NewIV()
	require.NoError(t, err)

	ct, err := filecrypt.Encrypt([]byte("hello world"), key, iv)
	require.NoError(t, err)

	otherKey, err := filecrypt.NewKey()
	require.NoError(t, err)
	_, err = filecrypt.Decrypt(ct, otherKey, iv)
	// a wrong key almost always produces invalid padding; a false accept
	// is cryptographically negligible and not asserted against here.
	if err == nil {
		t.Skip("wrong-key decrypt happened to produce valid padding")
	}
}
