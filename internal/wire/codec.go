// Package wire isolates the dynamic-typing-at-the-wire conversions the
// protocol needs: big integers beyond native 64-bit width are carried as
// uppercase, 48-hex-char, space-grouped strings, and curve points as
// two-element coordinate arrays (or null for the point at infinity). All
// conversions are centralized here rather than scattered through
// handlers, following the teacher's own shadow-struct marshal pattern
// (protocols/lss/config/marshal.go) adapted from base64 binary blobs to
// hex-grouped big integers.
package wire

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// hexWidth is the zero-padded width, in hex characters, of a wire integer.
const hexWidth = 48

// Int is a *big.Int that marshals to/from the canonical hex-grouped wire
// format: an uppercase 48-hex-char string, zero padded, grouped into
// 8-char chunks separated by spaces, e.g. "CAFEBABE DEADBEEF 00000000 ...".
type Int struct {
	*big.Int
}

// NewInt wraps v for wire serialization. A nil v marshals to JSON null.
func NewInt(v *big.Int) Int {
	return Int{v}
}

// IntFromInt64 is a convenience constructor for small literal wire integers.
func IntFromInt64(v int64) Int {
	return Int{big.NewInt(v)}
}

// MarshalJSON renders the integer as a hex-grouped string, or null.
func (i Int) MarshalJSON() ([]byte, error) {
	if i.Int == nil {
		return []byte("null"), nil
	}
	return json.Marshal(EncodeHexGrouped(i.Int))
}

// UnmarshalJSON parses a hex-grouped string (spaces optional) back into
// an arbitrary-precision integer.
func (i *Int) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		i.Int = nil
		return nil
	}
	v, err := DecodeHexGrouped(*s)
	if err != nil {
		return err
	}
	i.Int = v
	return nil
}

// EncodeHexGrouped renders v as an uppercase 48-hex-char string, zero
// padded, grouped in 8-char chunks separated by spaces.
func EncodeHexGrouped(v *big.Int) string {
	hexStr := strings.ToUpper(v.Text(16))
	if len(hexStr) < hexWidth {
		hexStr = strings.Repeat("0", hexWidth-len(hexStr)) + hexStr
	}
	var b strings.Builder
	for i := 0; i < len(hexStr); i += 8 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 8
		if end > len(hexStr) {
			end = len(hexStr)
		}
		b.WriteString(hexStr[i:end])
	}
	return b.String()
}

// DecodeHexGrouped parses a hex string, with or without space grouping,
// back into a *big.Int.
func DecodeHexGrouped(s string) (*big.Int, error) {
	cleaned := strings.ReplaceAll(s, " ", "")
	if cleaned == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(cleaned, 16)
	if !ok {
		return nil, fmt.Errorf("wire: invalid hex integer %q", s)
	}
	return v, nil
}

// PointTuple is the wire form of a curve point: [x, y], or null for the
// point at infinity.
type PointTuple struct {
	X, Y *big.Int // both nil denotes infinity
}

// MarshalJSON renders the point as [x, y] or null.
func (p PointTuple) MarshalJSON() ([]byte, error) {
	if p.X == nil && p.Y == nil {
		return []byte("null"), nil
	}
	return json.Marshal([2]Int{NewInt(p.X), NewInt(p.Y)})
}

// UnmarshalJSON parses [x, y] or null.
func (p *PointTuple) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		p.X, p.Y = nil, nil
		return nil
	}
	var pair [2]Int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.X, p.Y = pair[0].Int, pair[1].Int
	return nil
}
