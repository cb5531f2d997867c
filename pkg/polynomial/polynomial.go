// Package polynomial implements dense-coefficient-vector polynomial
// arithmetic over Z_N and full-coefficient Lagrange reconstruction, as
// used by the secret-sharing layer. A dense vector indexed 0..T-1 is used
// throughout rather than a sparse exponent map, since T is always small.
package polynomial

import (
	"errors"
	"math/big"
)

// ErrInvalidInput is returned when two evaluation points share an x-coordinate.
var ErrInvalidInput = errors.New("polynomial: duplicate x-coordinate in evaluation points")

// ErrModulusMismatch is returned when combining polynomials over different moduli.
var ErrModulusMismatch = errors.New("polynomial: modulus mismatch")

// Polynomial is a dense coefficient vector f(x) = sum coef[i] * x^i mod N.
type Polynomial struct {
	Coef []*big.Int
	Mod  *big.Int
}

// New builds a polynomial from coefficients a0..ak, reducing each mod n.
func New(n *big.Int, coef ...*big.Int) *Polynomial {
	reduced := make([]*big.Int, len(coef))
	for i, c := range coef {
		reduced[i] = reduceMod(c, n)
	}
	return &Polynomial{Coef: reduced, Mod: n}
}

func reduceMod(v, n *big.Int) *big.Int {
	r := new(big.Int).Mod(v, n)
	if r.Sign() < 0 {
		r.Add(r, n)
	}
	return r
}

// Degree returns the polynomial's degree (len(Coef)-1).
func (p *Polynomial) Degree() int {
	return len(p.Coef) - 1
}

func (p *Polynomial) coefAt(i int) *big.Int {
	if i < 0 || i >= len(p.Coef) {
		return big.NewInt(0)
	}
	return p.Coef[i]
}

// Eval evaluates f(x) mod N via direct summation of terms.
func (p *Polynomial) Eval(x *big.Int) *big.Int {
	result := big.NewInt(0)
	xPow := big.NewInt(1)
	for _, c := range p.Coef {
		term := new(big.Int).Mul(c, xPow)
		result.Add(result, term)
		xPow.Mul(xPow, x)
		xPow.Mod(xPow, p.Mod)
	}
	return reduceMod(result, p.Mod)
}

// Add returns p + q mod N.
func (p *Polynomial) Add(q *Polynomial) (*Polynomial, error) {
	if p.Mod.Cmp(q.Mod) != 0 {
		return nil, ErrModulusMismatch
	}
	n := max(len(p.Coef), len(q.Coef))
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i] = reduceMod(new(big.Int).Add(p.coefAt(i), q.coefAt(i)), p.Mod)
	}
	return &Polynomial{Coef: out, Mod: p.Mod}, nil
}

// Sub returns p - q mod N.
func (p *Polynomial) Sub(q *Polynomial) (*Polynomial, error) {
	if p.Mod.Cmp(q.Mod) != 0 {
		return nil, ErrModulusMismatch
	}
	n := max(len(p.Coef), len(q.Coef))
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i] = reduceMod(new(big.Int).Sub(p.coefAt(i), q.coefAt(i)), p.Mod)
	}
	return &Polynomial{Coef: out, Mod: p.Mod}, nil
}

// Neg returns -p mod N.
func (p *Polynomial) Neg() *Polynomial {
	out := make([]*big.Int, len(p.Coef))
	for i, c := range p.Coef {
		out[i] = reduceMod(new(big.Int).Neg(c), p.Mod)
	}
	return &Polynomial{Coef: out, Mod: p.Mod}
}

// Scale returns k*p mod N.
func (p *Polynomial) Scale(k *big.Int) *Polynomial {
	out := make([]*big.Int, len(p.Coef))
	for i, c := range p.Coef {
		out[i] = reduceMod(new(big.Int).Mul(c, k), p.Mod)
	}
	return &Polynomial{Coef: out, Mod: p.Mod}
}

// Mul returns the full convolution product p*q mod N.
func (p *Polynomial) Mul(q *Polynomial) (*Polynomial, error) {
	if p.Mod.Cmp(q.Mod) != 0 {
		return nil, ErrModulusMismatch
	}
	out := make([]*big.Int, len(p.Coef)+len(q.Coef)-1)
	for i := range out {
		out[i] = big.NewInt(0)
	}
	for i, a := range p.Coef {
		for j, b := range q.Coef {
			term := new(big.Int).Mul(a, b)
			out[i+j].Add(out[i+j], term)
		}
	}
	for i := range out {
		out[i] = reduceMod(out[i], p.Mod)
	}
	return &Polynomial{Coef: out, Mod: p.Mod}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Point is a single (x, y) evaluation of a polynomial, used as input to
// Lagrange reconstruction.
type Point struct {
	X *big.Int
	Y *big.Int
}

// LagrangeCoefficients reconstructs the FULL coefficient vector
// {a0, a1, ..., ak} of a degree-k polynomial from k+1 distinct (x, y)
// points, mirroring CloudServer/builtin_tools/polynomial.py's
// lagrange_poly_coeffs: for each point i, build the Lagrange basis
// polynomial L_i(x) = prod_{j != i} (x - x_j) / (x_i - x_j), scale it by
// y_i, and accumulate.
func LagrangeCoefficients(points []Point, n *big.Int) (*Polynomial, error) {
	xs := make(map[string]bool, len(points))
	for _, pt := range points {
		key := pt.X.String()
		if xs[key] {
			return nil, ErrInvalidInput
		}
		xs[key] = true
	}

	result := New(n)
	for i, pi := range points {
		numerator := New(n, big.NewInt(1))
		denominator := big.NewInt(1)
		for j, pj := range points {
			if i == j {
				continue
			}
			// (x - x_j)
			term := New(n, reduceMod(new(big.Int).Neg(pj.X), n), big.NewInt(1))
			var err error
			numerator, err = numerator.Mul(term)
			if err != nil {
				return nil, err
			}
			diff := reduceMod(new(big.Int).Sub(pi.X, pj.X), n)
			denominator.Mul(denominator, diff)
			denominator.Mod(denominator, n)
		}
		denomInv := modInverse(denominator, n)
		basis := numerator.Scale(denomInv)
		weighted := basis.Scale(reduceMod(pi.Y, n))
		var err error
		result, err = result.Add(weighted)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// modInverse computes the modular inverse of a mod n via the extended
// Euclidean algorithm (math/big.ModInverse already implements it).
func modInverse(a, n *big.Int) *big.Int {
	inv := new(big.Int).ModInverse(a, n)
	if inv == nil {
		return big.NewInt(0)
	}
	return inv
}
