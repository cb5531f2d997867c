package curve

import "math/big"

// Legendre computes the Legendre symbol (n/p): 1 if n is a quadratic
// residue mod the odd prime p, p-1 (i.e. -1 mod p) if it is a
// non-residue, 0 if p divides n.
func Legendre(n, p *big.Int) *big.Int {
	exp := new(big.Int).Sub(p, big.NewInt(1))
	exp.Rsh(exp, 1)
	return new(big.Int).Exp(n, exp, p)
}

// sqrtModP computes a square root of n mod the odd prime p via
// Tonelli-Shanks, with the p ≡ 3 (mod 4) fast path. ok is false when n is
// a quadratic non-residue mod p.
func sqrtModP(n, p *big.Int) (y *big.Int, ok bool) {
	zero := big.NewInt(0)
	if n.Sign() == 0 {
		return big.NewInt(0), true
	}
	two := big.NewInt(2)
	if p.Cmp(two) == 0 {
		return new(big.Int).Mod(n, p), true
	}

	one := big.NewInt(1)
	legendre := Legendre(n, p)
	if legendre.Cmp(one) != 0 {
		return nil, false
	}

	four := big.NewInt(4)
	three := big.NewInt(3)
	if new(big.Int).Mod(p, four).Cmp(three) == 0 {
		exp := new(big.Int).Add(p, one)
		exp.Rsh(exp, 2)
		y = new(big.Int).Exp(n, exp, p)
		return y, true
	}

	// Factor p-1 = Q * 2^S.
	q := new(big.Int).Sub(p, one)
	s := 0
	for new(big.Int).Mod(q, two).Sign() == 0 {
		q.Rsh(q, 1)
		s++
	}

	// Find a quadratic non-residue z.
	pMinus1 := new(big.Int).Sub(p, one)
	z := big.NewInt(2)
	for Legendre(z, p).Cmp(pMinus1) != 0 {
		z.Add(z, one)
	}

	c := new(big.Int).Exp(z, q, p)
	t := new(big.Int).Exp(n, q, p)
	qPlus1Half := new(big.Int).Add(q, one)
	qPlus1Half.Rsh(qPlus1Half, 1)
	r := new(big.Int).Exp(n, qPlus1Half, p)
	m := s

	for t.Cmp(one) != 0 {
		i := 0
		temp := new(big.Int).Set(t)
		for temp.Cmp(one) != 0 && i < m {
			temp.Exp(temp, two, p)
			i++
		}
		if i == m {
			return nil, false
		}

		shift := uint(m - i - 1)
		b := new(big.Int).Exp(c, new(big.Int).Lsh(one, shift), p)
		m = i
		c = new(big.Int).Exp(b, two, p)
		t.Mul(t, c)
		t.Mod(t, p)
		r.Mul(r, b)
		r.Mod(r, p)
	}
	_ = zero
	return r, true
}

// YFromX returns the two candidate y-coordinates (y, p-y) for x on c, or
// ok=false when x^3+ax+b is a quadratic non-residue mod p.
func (c *Curve) YFromX(x *big.Int) (y1, y2 *big.Int, ok bool) {
	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	ax := new(big.Int).Mul(c.A, x)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, c.P)
	if rhs.Sign() < 0 {
		rhs.Add(rhs, c.P)
	}

	y, found := sqrtModP(rhs, c.P)
	if !found {
		return nil, nil, false
	}
	other := new(big.Int).Sub(c.P, y)
	return y, other, true
}

// ToTuple renders p as an (x, y) pair, with (nil, nil) for infinity —
// mirroring the point_to_tuple/INFINITY=(None,None) convention the curve
// arithmetic was ported from.
func (p Point) ToTuple() (x, y *big.Int) {
	if p.IsInfinity() {
		return nil, nil
	}
	return p.X(), p.Y()
}

// FromTuple is the inverse of ToTuple: (nil, nil) denotes infinity.
func FromTuple(c *Curve, x, y *big.Int) (Point, error) {
	if x == nil && y == nil {
		return Infinity(c), nil
	}
	return c.Point(x, y)
}
