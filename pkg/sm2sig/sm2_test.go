package sm2sig_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
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

func TestSignVerifyRoundTrip(t *testing.T) {
	c := testCurve(t)
	signer := &sm2sig.Signer{Curve: c, UserID: "616c696365"} // "alice"
	priv, pub := genKeypair(t, c)

	za, err := signer.ComputeZA(pub)
	require.NoError(t, err)

	message := []byte("share payload to authenticate")
	sig, err := signer.Sign(message, za, priv)
	require.NoError(t, err)

	assert.True(t, signer.Verify(sig, message, za, pub))
}

func TestVerifyFailsUnderWrongKey(t *testing.T) {
	c := testCurve(t)
	signer := &sm2sig.Signer{Curve: c, UserID: "626f62"} // "bob"
	priv, pub := genKeypair(t, c)
	_, otherPub := genKeypair(t, c)

	za, err := signer.ComputeZA(pub)
	require.NoError(t, err)

	message := []byte("share payload")
	sig, err := signer.Sign(message, za, priv)
	require.NoError(t, err)

	assert.False(t, signer.Verify(sig, message, za, otherPub))
}

func TestVerifyFailsOnTamperedMessage(t *testing.T) {
	c := testCurve(t)
	signer := &sm2sig.Signer{Curve: c, UserID: "636861726c6965"} // "charlie"
	priv, pub := genKeypair(t, c)

	za, err := signer.ComputeZA(pub)
	require.NoError(t, err)

	sig, err := signer.Sign([]byte("original"), za, priv)
	require.NoError(t, err)

	assert.False(t, signer.Verify(sig, []byte("tampered"), za, pub))
}
