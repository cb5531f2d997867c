// Package curve implements a generic short-Weierstrass elliptic curve
// y^2 = x^3 + a*x + b (mod p), parameterized entirely at runtime. It
// intentionally does not wrap a Go stdlib named curve or a fixed-curve
// library: the active curve is announced by SystemParameters and may be
// anything from P-192 up, which crypto/elliptic cannot represent.
package curve

import (
	"errors"
	"math/big"
)

// ErrPointOffCurve is returned when an affine point fails the curve equation.
var ErrPointOffCurve = errors.New("curve: point is not on the curve")

// ErrCurveMismatch is returned when operating on points from different curves.
var ErrCurveMismatch = errors.New("curve: points belong to different curves")

// Curve holds the Weierstrass parameters over a prime field.
type Curve struct {
	P *big.Int // field modulus
	A *big.Int // coefficient a
	B *big.Int // coefficient b
	N *big.Int // order of the base point G
	G Point    // base point
}

// New builds a Curve from its public parameters, returning an error when G
// does not lie on the curve. It does not check N's primality or that N is
// the order of G; callers load parameters from a trusted SystemParameters
// source.
func New(p, a, b, gx, gy, n *big.Int) (*Curve, error) {
	c := &Curve{P: p, A: a, B: b, N: n}
	g, err := c.Point(gx, gy)
	if err != nil {
		return nil, err
	}
	c.G = g
	return c, nil
}

// Contains reports whether (x, y) satisfies the curve equation mod p.
func (c *Curve) Contains(x, y *big.Int) bool {
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, c.P)

	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	ax := new(big.Int).Mul(c.A, x)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, c.P)
	rhs.Mod(rhs, c.P)
	if rhs.Sign() < 0 {
		rhs.Add(rhs, c.P)
	}
	if lhs.Sign() < 0 {
		lhs.Add(lhs, c.P)
	}
	return lhs.Cmp(rhs) == 0
}

// Point constructs an affine point, verifying it lies on the curve.
func (c *Curve) Point(x, y *big.Int) (Point, error) {
	if x == nil && y == nil {
		return Infinity(c), nil
	}
	if !c.Contains(x, y) {
		return Point{}, ErrPointOffCurve
	}
	return Point{curve: c, x: new(big.Int).Set(x), y: new(big.Int).Set(y)}, nil
}

// Point is either an affine (x, y) coordinate pair or the distinguished
// point at infinity (the group identity).
type Point struct {
	curve *Curve
	x, y  *big.Int // nil, nil denotes the point at infinity
}

// Infinity returns the identity element of c's group.
func Infinity(c *Curve) Point {
	return Point{curve: c}
}

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool {
	return p.x == nil && p.y == nil
}

// X returns the affine x-coordinate, or nil at infinity.
func (p Point) X() *big.Int {
	if p.x == nil {
		return nil
	}
	return new(big.Int).Set(p.x)
}

// Y returns the affine y-coordinate, or nil at infinity.
func (p Point) Y() *big.Int {
	if p.y == nil {
		return nil
	}
	return new(big.Int).Set(p.y)
}

// Curve returns the curve p belongs to.
func (p Point) Curve() *Curve { return p.curve }

// Equal reports whether p and q denote the same point on the same curve.
func (p Point) Equal(q Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

// Neg returns -p = (x, p-y).
func (p Point) Neg() Point {
	if p.IsInfinity() {
		return p
	}
	ny := new(big.Int).Sub(p.curve.P, p.y)
	ny.Mod(ny, p.curve.P)
	return Point{curve: p.curve, x: new(big.Int).Set(p.x), y: ny}
}

// Add computes p + q using the standard chord-and-tangent rule.
func (p Point) Add(q Point) Point {
	if q.IsInfinity() {
		return p
	}
	if p.IsInfinity() {
		return q
	}
	mod := p.curve.P

	if p.x.Cmp(q.x) == 0 {
		sum := new(big.Int).Add(p.y, q.y)
		sum.Mod(sum, mod)
		if sum.Sign() == 0 {
			return Infinity(p.curve)
		}
	}

	var lambda *big.Int
	if p.x.Cmp(q.x) == 0 {
		// doubling: lambda = (3x^2 + a) / (2y)
		num := new(big.Int).Mul(p.x, p.x)
		num.Mul(num, big.NewInt(3))
		num.Add(num, p.curve.A)
		den := new(big.Int).Lsh(p.y, 1)
		lambda = new(big.Int).Mul(num, modInverse(den, mod))
		lambda.Mod(lambda, mod)
	} else {
		num := new(big.Int).Sub(q.y, p.y)
		den := new(big.Int).Sub(q.x, p.x)
		den.Mod(den, mod)
		lambda = new(big.Int).Mul(num, modInverse(den, mod))
		lambda.Mod(lambda, mod)
	}

	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, p.x)
	x3.Sub(x3, q.x)
	x3.Mod(x3, mod)

	y3 := new(big.Int).Sub(p.x, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, p.y)
	y3.Mod(y3, mod)

	if x3.Sign() < 0 {
		x3.Add(x3, mod)
	}
	if y3.Sign() < 0 {
		y3.Add(y3, mod)
	}

	return Point{curve: p.curve, x: x3, y: y3}
}

// Sub computes p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// ScalarMult computes k*p via double-and-add. A negative k multiplies by
// |k| and negates the result; k == 0 yields the point at infinity.
func (p Point) ScalarMult(k *big.Int) Point {
	if k.Sign() == 0 || p.IsInfinity() {
		return Infinity(p.curve)
	}
	if k.Sign() < 0 {
		return p.Neg().ScalarMult(new(big.Int).Neg(k))
	}

	result := Infinity(p.curve)
	addend := p
	scalar := new(big.Int).Set(k)
	zero := big.NewInt(0)
	one := big.NewInt(1)
	for scalar.Cmp(zero) > 0 {
		if new(big.Int).And(scalar, one).Sign() != 0 {
			result = result.Add(addend)
		}
		addend = addend.Add(addend)
		scalar.Rsh(scalar, 1)
	}
	return result
}

func modInverse(a, m *big.Int) *big.Int {
	inv := new(big.Int).ModInverse(a, m)
	if inv == nil {
		return big.NewInt(0)
	}
	return inv
}
