package polynomial_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/polynomial"
)

var testMod = big.NewInt(2147483647) // a conveniently large prime (2^31 - 1)

func TestEvalHorner(t *testing.T) {
	// f(x) = 3 + 2x + x^2
	p := polynomial.New(testMod, big.NewInt(3), big.NewInt(2), big.NewInt(1))
	assert.Equal(t, big.NewInt(6).Int64(), p.Eval(big.NewInt(1)).Int64())
	assert.Equal(t, big.NewInt(11).Int64(), p.Eval(big.NewInt(2)).Int64())
}

func TestAddSubNeg(t *testing.T) {
	p := polynomial.New(testMod, big.NewInt(1), big.NewInt(2))
	q := polynomial.New(testMod, big.NewInt(3), big.NewInt(4), big.NewInt(5))

	sum, err := p.Add(q)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Coef[0].Int64())
	assert.Equal(t, int64(6), sum.Coef[1].Int64())
	assert.Equal(t, int64(5), sum.Coef[2].Int64())

	diff, err := q.Sub(p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), diff.Coef[0].Int64())
	assert.Equal(t, int64(2), diff.Coef[1].Int64())

	neg := p.Neg()
	back, err := neg.Add(p)
	require.NoError(t, err)
	for _, c := range back.Coef {
		assert.Equal(t, int64(0), c.Int64())
	}
}

func TestMulConvolution(t *testing.T) {
	// (1 + x) * (1 + x) = 1 + 2x + x^2
	p := polynomial.New(testMod, big.NewInt(1), big.NewInt(1))
	sq, err := p.Mul(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sq.Coef[0].Int64())
	assert.Equal(t, int64(2), sq.Coef[1].Int64())
	assert.Equal(t, int64(1), sq.Coef[2].Int64())
}

func TestModulusMismatch(t *testing.T) {
	p := polynomial.New(testMod, big.NewInt(1))
	q := polynomial.New(big.NewInt(97), big.NewInt(1))
	_, err := p.Add(q)
	assert.ErrorIs(t, err, polynomial.ErrModulusMismatch)
}

func TestLagrangeRecoversFullCoefficients(t *testing.T) {
	orig := polynomial.New(testMod, big.NewInt(7), big.NewInt(13), big.NewInt(5))

	points := make([]polynomial.Point, 0, 3)
	for x := int64(1); x <= 3; x++ {
		xb := big.NewInt(x)
		points = append(points, polynomial.Point{X: xb, Y: orig.Eval(xb)})
	}

	recovered, err := polynomial.LagrangeCoefficients(points, testMod)
	require.NoError(t, err)
	require.Len(t, recovered.Coef, 3)
	for i := range orig.Coef {
		assert.Equal(t, orig.Coef[i].String(), recovered.Coef[i].String())
	}
}

func TestLagrangeDuplicateXFails(t *testing.T) {
	points := []polynomial.Point{
		{X: big.NewInt(1), Y: big.NewInt(5)},
		{X: big.NewInt(1), Y: big.NewInt(9)},
	}
	_, err := polynomial.LagrangeCoefficients(points, testMod)
	assert.ErrorIs(t, err, polynomial.ErrInvalidInput)
}
