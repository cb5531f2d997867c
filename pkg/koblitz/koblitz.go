// Package koblitz implements Koblitz point embedding: a deterministic,
// reversible encoding of an opaque byte string into a sequence of
// elliptic-curve points, used as the message-encoding step ahead of ECC
// encryption.
package koblitz

import (
	"errors"
	"math/big"

	"github.com/dstbp/vaultshard/pkg/curve"
)

// K is the per-block search budget: the encoder tries K candidate
// x-coordinates per block before giving up.
const K = 100000

// ErrEncodingExhausted is returned when no quadratic residue is found
// within K attempts for a block (negligible in practice for this K).
var ErrEncodingExhausted = errors.New("koblitz: encoding exhausted search budget")

// ErrInvalidPadding is returned by Decode when the trailing PKCS7 padding
// is malformed.
var ErrInvalidPadding = errors.New("koblitz: invalid padding")

// Codec embeds and extracts byte strings against a fixed curve.
type Codec struct {
	Curve     *curve.Curve
	BlockSize int // bytes per block, derived from bitlen(p/K - 1)
}

// NewCodec derives BlockSize from the curve's field modulus, per
// block_size = ceil(bitlen((p/K) - 1) / 8).
func NewCodec(c *curve.Curve) *Codec {
	maxBlock := new(big.Int).Div(c.P, big.NewInt(K))
	maxBlock.Sub(maxBlock, big.NewInt(1))
	blockSize := (maxBlock.BitLen() + 7) / 8
	if blockSize == 0 {
		blockSize = 1
	}
	return &Codec{Curve: c, BlockSize: blockSize}
}

// encodeBlock searches x = m*K + j for the first quadratic residue
// x^3+ax+b, returning the point (x, y0).
func (c *Codec) encodeBlock(m *big.Int) (curve.Point, error) {
	base := new(big.Int).Mul(m, big.NewInt(K))
	x := new(big.Int).Set(base)
	for j := 0; j < K; j++ {
		if x.Cmp(c.Curve.P) >= 0 {
			break
		}
		if y1, _, ok := c.Curve.YFromX(x); ok {
			return c.Curve.Point(x, y1)
		}
		x.Add(x, big.NewInt(1))
	}
	return curve.Point{}, ErrEncodingExhausted
}

// Encode PKCS7-pads message to a multiple of BlockSize and encodes each
// block as a curve point.
func (c *Codec) Encode(message []byte) ([]curve.Point, error) {
	padLen := c.BlockSize - (len(message) % c.BlockSize)
	if padLen == 0 {
		padLen = c.BlockSize
	}
	padded := make([]byte, len(message)+padLen)
	copy(padded, message)
	for i := len(message); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	points := make([]curve.Point, 0, len(padded)/c.BlockSize)
	for i := 0; i < len(padded); i += c.BlockSize {
		block := padded[i : i+c.BlockSize]
		m := new(big.Int).SetBytes(block)
		p, err := c.encodeBlock(m)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// Decode reverses Encode: recovers m = floor(x/K) per point, concatenates,
// and strips PKCS7 padding.
func (c *Codec) Decode(points []curve.Point) ([]byte, error) {
	stream := make([]byte, 0, len(points)*c.BlockSize)
	for _, p := range points {
		if p.IsInfinity() {
			return nil, ErrInvalidPadding
		}
		m := new(big.Int).Div(p.X(), big.NewInt(K))
		block := m.FillBytes(make([]byte, c.BlockSize))
		stream = append(stream, block...)
	}

	if len(stream) == 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(stream[len(stream)-1])
	if padLen < 1 || padLen > c.BlockSize || padLen > len(stream) {
		return nil, ErrInvalidPadding
	}
	for _, b := range stream[len(stream)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return stream[:len(stream)-padLen], nil
}
