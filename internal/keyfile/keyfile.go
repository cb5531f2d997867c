// Package keyfile persists the custom-curve keypairs used by storage
// nodes and clients as PEM files, carrying the private scalar and public
// point as hex text inside a custom PEM block type rather than through
// x509 (crypto/x509's ASN.1 curve OIDs cannot express an arbitrary
// runtime-parameterized Weierstrass curve — §9 Design Notes).
package keyfile

import (
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/dstbp/vaultshard/pkg/curve"
)

const (
	privateBlockType = "VAULTSHARD PRIVATE KEY"
	publicBlockType  = "VAULTSHARD PUBLIC KEY"
)

// Generate draws a fresh CSPRNG private scalar in [1, N-1] and its public
// point d*G.
func Generate(c *curve.Curve) (*big.Int, curve.Point, error) {
	nMinus1 := new(big.Int).Sub(c.N, big.NewInt(1))
	d, err := rand.Int(rand.Reader, nMinus1)
	if err != nil {
		return nil, curve.Point{}, err
	}
	d.Add(d, big.NewInt(1))
	return d, c.G.ScalarMult(d), nil
}

// WritePrivate writes d as a hex-text PEM block to path.
func WritePrivate(path string, d *big.Int) error {
	block := &pem.Block{Type: privateBlockType, Bytes: []byte(d.Text(16))}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

// WritePublic writes pub's (x, y) coordinates as a hex-text PEM block to path.
func WritePublic(path string, pub curve.Point) error {
	x, y := pub.ToTuple()
	if x == nil || y == nil {
		return fmt.Errorf("keyfile: cannot persist the point at infinity")
	}
	body := fmt.Sprintf("%s\n%s", x.Text(16), y.Text(16))
	block := &pem.Block{Type: publicBlockType, Bytes: []byte(body)}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o644)
}

// ReadPrivate loads a private scalar from path.
func ReadPrivate(path string) (*big.Int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != privateBlockType {
		return nil, fmt.Errorf("keyfile: %s is not a private key PEM", path)
	}
	d, ok := new(big.Int).SetString(string(block.Bytes), 16)
	if !ok {
		return nil, fmt.Errorf("keyfile: malformed private scalar in %s", path)
	}
	return d, nil
}

// ReadPublic loads a public point from path against c.
func ReadPublic(path string, c *curve.Curve) (curve.Point, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return curve.Point{}, err
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != publicBlockType {
		return curve.Point{}, fmt.Errorf("keyfile: %s is not a public key PEM", path)
	}
	fields := strings.Fields(string(block.Bytes))
	if len(fields) != 2 {
		return curve.Point{}, fmt.Errorf("keyfile: malformed public point in %s", path)
	}
	x, ok := new(big.Int).SetString(fields[0], 16)
	if !ok {
		return curve.Point{}, fmt.Errorf("keyfile: malformed public x in %s", path)
	}
	y, ok := new(big.Int).SetString(fields[1], 16)
	if !ok {
		return curve.Point{}, fmt.Errorf("keyfile: malformed public y in %s", path)
	}
	return curve.FromTuple(c, x, y)
}

// EnsureKeypair loads an existing keypair from privatePath/publicPath, or
// generates and persists a fresh one if privatePath does not exist yet.
func EnsureKeypair(c *curve.Curve, privatePath, publicPath string) (*big.Int, curve.Point, error) {
	if _, err := os.Stat(privatePath); err == nil {
		d, err := ReadPrivate(privatePath)
		if err != nil {
			return nil, curve.Point{}, err
		}
		pub, err := ReadPublic(publicPath, c)
		if err != nil {
			return nil, curve.Point{}, err
		}
		return d, pub, nil
	} else if !os.IsNotExist(err) {
		return nil, curve.Point{}, err
	}

	d, pub, err := Generate(c)
	if err != nil {
		return nil, curve.Point{}, err
	}
	if err := WritePrivate(privatePath, d); err != nil {
		return nil, curve.Point{}, err
	}
	if err := WritePublic(publicPath, pub); err != nil {
		return nil, curve.Point{}, err
	}
	return d, pub, nil
}
