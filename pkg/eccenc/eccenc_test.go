package eccenc_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/eccenc"
	"github.com/dstbp/vaultshard/pkg/koblitz"
)

func testCurve(t *testing.T) *curve.Curve {
	t.Helper()
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
	a, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffefffffffffffffffc", 16)
	b, _ := new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
	gx, _ := new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
	gy, _ := new(big.Int).SetString("7192b95ffc8da78631011ed6b24cdd573f977a11e794811", 16)
	n, _ := new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
	c, err := curve.New(p, a, b, gx, gy, n)
	require.NoError(t, err)
	return c
}

func genKeypair(t *testing.T, c *curve.Curve) (*big.Int, curve.Point) {
	t.Helper()
	d, err := rand.Int(rand.Reader, new(big.Int).Sub(c.N, big.NewInt(1)))
	require.NoError(t, err)
	d.Add(d, big.NewInt(1))
	return d, c.G.ScalarMult(d)
}

func TestSingleLayerRoundTrip(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)
	priv, pub := genKeypair(t, c)

	blob, err := eccenc.Encrypt(c, codec, []byte("deadbeef01234567"), pub)
	require.NoError(t, err)

	plain, err := eccenc.Decrypt(c, codec, blob, priv)
	require.NoError(t, err)
	assert.Equal(t, []byte("deadbeef01234567"), plain)
}

// TestLayeredCommutativity mirrors the spec's layered-encryption
// commutativity property: a ciphertext encrypted first under P_node then
// under P_user can have its node layer stripped first, and still decrypt
// under the user's private key alone (the double-encryption trick §4.4,
// §4.8).
func TestLayeredCommutativity(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)
	dNode, pNode := genKeypair(t, c)
	dUser, pUser := genKeypair(t, c)

	blob, err := eccenc.Encrypt(c, codec, []byte("share-value"), pNode)
	require.NoError(t, err)

	layered, err := eccenc.AddLayer(c, blob, pUser)
	require.NoError(t, err)

	stripped, err := eccenc.StripLayer(c, layered, "c1", dNode)
	require.NoError(t, err)

	plain, err := eccenc.Decrypt(c, codec, stripped, dUser)
	require.NoError(t, err)
	assert.Equal(t, []byte("share-value"), plain)
}

func TestStripUnknownLayerFails(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)
	_, pub := genKeypair(t, c)

	blob, err := eccenc.Encrypt(c, codec, []byte("x"), pub)
	require.NoError(t, err)

	_, err = eccenc.StripLayer(c, blob, "c9", big.NewInt(1))
	assert.ErrorIs(t, err, eccenc.ErrLayerNotFound)
}
