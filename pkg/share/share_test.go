package share_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/polynomial"
	"github.com/dstbp/vaultshard/pkg/share"
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

func TestGenerateCommitVerifyAndRecover(t *testing.T) {
	c := testCurve(t)
	const threshold = 5
	secretHex := "1a2b3c4d5e6f7081"

	poly, err := share.GeneratePolynomial(threshold, c.N, secretHex)
	require.NoError(t, err)
	require.Len(t, poly.Coef, threshold)

	commits := share.Commit(c.G, poly)
	require.Len(t, commits, threshold)

	nodeIDs := []int64{11, 22, 33, 44, 55, 66, 77}
	type verified struct {
		sid   *big.Int
		value *big.Int
	}
	var good []verified
	for _, id := range nodeIDs {
		sid := big.NewInt(id)
		val := share.EvaluateShare(poly, sid)
		ok := share.VerifyShare(c.G, c.N, commits, sid, val)
		assert.True(t, ok, "share for node %d should verify", id)
		good = append(good, verified{sid: sid, value: val})
	}

	points := make([]polynomial.Point, 0, len(good))
	for _, g := range good {
		points = append(points, polynomial.Point{X: g.sid, Y: g.value})
	}

	recovered, err := share.RecoverKey(points, c.N, threshold)
	require.NoError(t, err)
	assert.Equal(t, secretHex, recovered)
}

func TestVerifyShareFailsOnTamperedValue(t *testing.T) {
	c := testCurve(t)
	const threshold = 4
	poly, err := share.GeneratePolynomial(threshold, c.N, "deadbeef")
	require.NoError(t, err)
	commits := share.Commit(c.G, poly)

	sid := big.NewInt(7)
	val := share.EvaluateShare(poly, sid)
	tampered := new(big.Int).Add(val, big.NewInt(1))

	assert.False(t, share.VerifyShare(c.G, c.N, commits, sid, tampered))
}

func TestRecoverKeyInsufficientSharesFails(t *testing.T) {
	c := testCurve(t)
	const threshold = 5
	poly, err := share.GeneratePolynomial(threshold, c.N, "cafef00d")
	require.NoError(t, err)

	points := []polynomial.Point{
		{X: big.NewInt(1), Y: share.EvaluateShare(poly, big.NewInt(1))},
		{X: big.NewInt(2), Y: share.EvaluateShare(poly, big.NewInt(2))},
	}
	_, err = share.RecoverKey(points, c.N, threshold)
	assert.ErrorIs(t, err, share.ErrInsufficientShares)
}
