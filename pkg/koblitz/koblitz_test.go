package koblitz_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstbp/vaultshard/pkg/curve"
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

func TestRoundTripShortMessage(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)

	msg := []byte("hello world")
	points, err := codec.Encode(msg)
	require.NoError(t, err)
	require.NotEmpty(t, points)

	back, err := codec.Decode(points)
	require.NoError(t, err)
	assert.Equal(t, msg, back)
}

func TestRoundTripEmptyMessage(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)

	points, err := codec.Encode(nil)
	require.NoError(t, err)
	back, err := codec.Decode(points)
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestRoundTripBlockAligned(t *testing.T) {
	c := testCurve(t)
	codec := koblitz.NewCodec(c)

	msg := make([]byte, codec.BlockSize*3)
	for i := range msg {
		msg[i] = byte(i)
	}
	points, err := codec.Encode(msg)
	require.NoError(t, err)
	back, err := codec.Decode(points)
	require.NoError(t, err)
	assert.Equal(t, msg, back)
}
