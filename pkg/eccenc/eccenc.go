// Package eccenc implements ECIES-like single-layer and layered
// ("double") ECC encryption over Koblitz-embedded plaintext, including
// the add-layer/strip-layer operations that let a storage node
// re-encrypt a share for a downloader without ever materializing the
// plaintext share (§4.4, §4.8).
package eccenc

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/koblitz"
)

// ErrMalformedCiphertext is returned when a ciphertext blob cannot be
// parsed into the expected {helper points, cts} shape.
var ErrMalformedCiphertext = errors.New("eccenc: malformed ciphertext")

// ErrLayerNotFound is returned by StripLayer when the requested helper
// label is absent.
var ErrLayerNotFound = errors.New("eccenc: layer not found")

// Ciphertext is the in-memory form of a (possibly layered) ECC
// ciphertext: one helper point per encryption layer, keyed by label
// ("c1", "c2", ...), and the list of point-ciphertexts shared by all
// layers.
type Ciphertext struct {
	Helpers map[string]curve.Point
	Cts     []curve.Point
}

// Encrypt Koblitz-encodes plaintext and produces a single-layer
// ciphertext under pub: {"c1": r*G, "cts": [M_i + r*P]}.
func Encrypt(c *curve.Curve, codec *koblitz.Codec, plaintext []byte, pub curve.Point) (string, error) {
	points, err := codec.Encode(plaintext)
	if err != nil {
		return "", err
	}
	r, err := randScalar(c.N)
	if err != nil {
		return "", err
	}

	rG := c.G.ScalarMult(r)
	rP := pub.ScalarMult(r)

	cts := make([]curve.Point, len(points))
	for i, p := range points {
		cts[i] = p.Add(rP)
	}

	ct := Ciphertext{Helpers: map[string]curve.Point{"c1": rG}, Cts: cts}
	return Serialize(ct)
}

// Decrypt reverses Encrypt given the single helper's private key.
func Decrypt(c *curve.Curve, codec *koblitz.Codec, blob string, priv *big.Int) ([]byte, error) {
	ct, err := Deserialize(c, blob)
	if err != nil {
		return nil, err
	}
	if len(ct.Helpers) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one layer", ErrMalformedCiphertext)
	}
	var helper curve.Point
	for _, h := range ct.Helpers {
		helper = h
	}
	dC1 := helper.ScalarMult(priv)

	points := make([]curve.Point, len(ct.Cts))
	for i, ctp := range ct.Cts {
		points[i] = ctp.Sub(dC1)
	}
	return codec.Decode(points)
}

// AddLayer appends a fresh layer under pub' — a new helper c_{k+1} = r'*G,
// and shifts every ct by r'*P'.
func AddLayer(c *curve.Curve, blob string, pub curve.Point) (string, error) {
	ct, err := Deserialize(c, blob)
	if err != nil {
		return "", err
	}
	r, err := randScalar(c.N)
	if err != nil {
		return "", err
	}

	nextLabel := nextHelperLabel(ct.Helpers)
	ct.Helpers[nextLabel] = c.G.ScalarMult(r)

	rP := pub.ScalarMult(r)
	shifted := make([]curve.Point, len(ct.Cts))
	for i, ctp := range ct.Cts {
		shifted[i] = ctp.Add(rP)
	}
	ct.Cts = shifted

	return Serialize(ct)
}

// StripLayer removes the layer labeled by label using its private key:
// ct_i <- ct_i - d*c_label, and drops that helper.
func StripLayer(c *curve.Curve, blob, label string, priv *big.Int) (string, error) {
	ct, err := Deserialize(c, blob)
	if err != nil {
		return "", err
	}
	helper, ok := ct.Helpers[label]
	if !ok {
		return "", ErrLayerNotFound
	}
	dHelper := helper.ScalarMult(priv)

	reduced := make([]curve.Point, len(ct.Cts))
	for i, ctp := range ct.Cts {
		reduced[i] = ctp.Sub(dHelper)
	}
	ct.Cts = reduced
	delete(ct.Helpers, label)

	return Serialize(ct)
}

func nextHelperLabel(helpers map[string]curve.Point) string {
	max := 0
	for label := range helpers {
		var n int
		if _, err := fmt.Sscanf(label, "c%d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("c%d", max+1)
}

func randScalar(n *big.Int) (*big.Int, error) {
	nMinus1 := new(big.Int).Sub(n, big.NewInt(1))
	r, err := rand.Int(rand.Reader, nMinus1)
	if err != nil {
		return nil, err
	}
	return r.Add(r, big.NewInt(1)), nil
}

// wireForm is the JSON shape of a serialized ciphertext: dynamic
// "c1".."ck" keys alongside "cts", matching the spec's wire format.
type wireForm map[string]json.RawMessage

// Serialize renders a Ciphertext to the base64(JSON) blob the spec calls
// enc_share.
func Serialize(ct Ciphertext) (string, error) {
	obj := make(map[string]wire.PointTuple, len(ct.Helpers)+1)
	raw := make(wireForm, len(ct.Helpers)+1)
	for label, p := range ct.Helpers {
		x, y := p.ToTuple()
		obj[label] = wire.PointTuple{X: x, Y: y}
	}
	for label, pt := range obj {
		b, err := json.Marshal(pt)
		if err != nil {
			return "", err
		}
		raw[label] = b
	}
	cts := make([]wire.PointTuple, len(ct.Cts))
	for i, p := range ct.Cts {
		x, y := p.ToTuple()
		cts[i] = wire.PointTuple{X: x, Y: y}
	}
	ctsBytes, err := json.Marshal(cts)
	if err != nil {
		return "", err
	}
	raw["cts"] = ctsBytes

	plain, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(plain), nil
}

// Deserialize parses a base64(JSON) blob back into a Ciphertext, resolving
// points against c.
func Deserialize(c *curve.Curve, blob string) (Ciphertext, error) {
	plain, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	var raw wireForm
	if err := json.Unmarshal(plain, &raw); err != nil {
		return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}

	ct := Ciphertext{Helpers: make(map[string]curve.Point)}
	for label, data := range raw {
		if label == "cts" {
			var cts []wire.PointTuple
			if err := json.Unmarshal(data, &cts); err != nil {
				return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
			}
			ct.Cts = make([]curve.Point, len(cts))
			for i, pt := range cts {
				p, err := curve.FromTuple(c, pt.X, pt.Y)
				if err != nil {
					return Ciphertext{}, err
				}
				ct.Cts[i] = p
			}
			continue
		}
		var pt wire.PointTuple
		if err := json.Unmarshal(data, &pt); err != nil {
			return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
		}
		p, err := curve.FromTuple(c, pt.X, pt.Y)
		if err != nil {
			return Ciphertext{}, err
		}
		ct.Helpers[label] = p
	}
	return ct, nil
}
