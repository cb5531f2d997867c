// Package share implements the threshold secret-sharing layer: building
// the sharing polynomial from a master key (with mask-selected secret
// blocks interleaved with random padding coefficients, §4.6), per-node
// share evaluation and Feldman commitments, share verification, and
// mask-guided key reconstruction from T verified shares (§4.10).
package share

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/polynomial"
)

// ErrSecretTooLarge is returned when the master key cannot be split into
// at most threshold-2 blocks under the given modulus.
var ErrSecretTooLarge = errors.New("share: secret exceeds splittable range for this threshold")

// ErrNoSplitPlan is returned when no valid block split was found.
var ErrNoSplitPlan = errors.New("share: could not find a valid split plan")

// ErrInsufficientShares is returned when fewer than threshold shares
// verify against the commitments.
var ErrInsufficientShares = errors.New("share: fewer than threshold verified shares")

// Commitments maps coefficient index -> a_i*G, the Feldman commitment to
// that coefficient (§4.6).
type Commitments map[int]curve.Point

// GeneratePolynomial builds the degree-(threshold-1) sharing polynomial
// for secretHex under modulus n: a0 carries a shuffled bitmask selecting
// which of the remaining threshold-1 coefficients hold a block of the
// split secret versus random padding, mirroring
// SystemCenter/business/core.py's __generate_polynomial.
func GeneratePolynomial(threshold int, n *big.Int, secretHex string) (*polynomial.Polynomial, error) {
	secretInt, ok := new(big.Int).SetString(secretHex, 16)
	if !ok {
		return nil, fmt.Errorf("share: invalid secret hex %q", secretHex)
	}

	blocksMin := ceilDiv(bitLen(secretInt), n.BitLen())
	if blocksMin > threshold-2 {
		return nil, ErrSecretTooLarge
	}
	if blocksMin < 1 {
		blocksMin = 1
	}

	blocksNum, err := randIntRange(blocksMin, threshold-2)
	if err != nil {
		return nil, err
	}

	blocks, err := splitSecretBlock(secretInt.String(), blocksNum, n)
	if err != nil {
		return nil, err
	}

	mask := make([]int, threshold-1)
	for i := 0; i < blocksNum; i++ {
		mask[i] = 1
	}
	if err := shuffleInts(mask); err != nil {
		return nil, err
	}

	maskInt := new(big.Int)
	for _, bit := range mask {
		maskInt.Lsh(maskInt, 1)
		if bit == 1 {
			maskInt.Or(maskInt, big.NewInt(1))
		}
	}

	coef := make([]*big.Int, threshold)
	coef[0] = maskInt
	blockIdx := 0
	for i, bit := range mask {
		if bit == 1 {
			b, ok := new(big.Int).SetString(blocks[blockIdx], 10)
			if !ok {
				return nil, fmt.Errorf("share: corrupt split block %q", blocks[blockIdx])
			}
			coef[i+1] = b
			blockIdx++
		} else {
			r, err := randBelow(new(big.Int).Sub(n, big.NewInt(2)))
			if err != nil {
				return nil, err
			}
			coef[i+1] = r.Add(r, big.NewInt(1))
		}
	}

	return polynomial.New(n, coef...), nil
}

// splitSecretBlock splits the decimal string secret into blocksNum
// roughly-equal pieces, the first (len%blocksNum) pieces one digit
// longer, stripping leading zeros and clamping any piece above modulus.
func splitSecretBlock(secret string, blocksNum int, modulus *big.Int) ([]string, error) {
	if blocksNum <= 0 {
		return nil, ErrNoSplitPlan
	}
	length := len(secret)
	avgSize := length / blocksNum
	remainder := length % blocksNum

	blocks := make([]string, 0, blocksNum)
	start := 0
	for i := 0; i < blocksNum; i++ {
		extra := 0
		if i < remainder {
			extra = 1
		}
		end := start + avgSize + extra
		if end > length {
			end = length
		}
		block := secret[start:end]
		if block == "" {
			return nil, ErrNoSplitPlan
		}

		if strings.HasPrefix(block, "0") && len(block) > 1 {
			trimmed := strings.TrimLeft(block, "0")
			if trimmed == "" {
				trimmed = "0"
			}
			block = trimmed
		}

		blockInt, ok := new(big.Int).SetString(block, 10)
		if !ok {
			return nil, ErrNoSplitPlan
		}
		if blockInt.Cmp(modulus) > 0 {
			block = modulus.String()
		}

		blocks = append(blocks, block)
		start = end
	}
	return blocks, nil
}

// Commit builds the Feldman commitments {i: coef[i]*G} for a sharing
// polynomial.
func Commit(base curve.Point, poly *polynomial.Polynomial) Commitments {
	commits := make(Commitments, len(poly.Coef))
	for i, c := range poly.Coef {
		commits[i] = base.ScalarMult(c)
	}
	return commits
}

// EvaluateShare evaluates the sharing polynomial at nodeID, the share a
// storage node receives.
func EvaluateShare(poly *polynomial.Polynomial, nodeID *big.Int) *big.Int {
	return poly.Eval(nodeID)
}

// VerifyShare checks share against commits for identity sid:
// share*G == sum_i (sid^i * commits[i]).
func VerifyShare(base curve.Point, n *big.Int, commits Commitments, sid, share *big.Int) bool {
	left := base.ScalarMult(share)

	right := curve.Infinity(base.Curve())
	for idx, commit := range commits {
		power := new(big.Int).Exp(sid, big.NewInt(int64(idx)), n)
		right = right.Add(commit.ScalarMult(power))
	}
	return left.Equal(right)
}

// RecoverKey reconstructs the master key hex string from at least
// threshold verified (sid, share) points: it Lagrange-reconstructs the
// full coefficient vector, reads the shuffle mask from a0, and
// concatenates the masked-in coefficients' decimal digits back into the
// original secret.
func RecoverKey(points []polynomial.Point, n *big.Int, threshold int) (string, error) {
	if len(points) < threshold {
		return "", ErrInsufficientShares
	}
	poly, err := polynomial.LagrangeCoefficients(points[:threshold], n)
	if err != nil {
		return "", err
	}

	maskWidth := threshold - 1
	mask := maskBits(poly.Coef[0], maskWidth)

	var key strings.Builder
	for i, bit := range mask {
		if bit == 1 {
			key.WriteString(poly.Coef[i+1].String())
		}
	}
	recovered, ok := new(big.Int).SetString(key.String(), 10)
	if !ok {
		return "", fmt.Errorf("share: recovered key %q is not a valid decimal integer", key.String())
	}
	return fmt.Sprintf("%x", recovered), nil
}

// maskBits renders v as a big-endian bit slice of exactly width bits,
// matching Python's bin(v)[2:].zfill(width).
func maskBits(v *big.Int, width int) []int {
	bits := make([]int, width)
	tmp := new(big.Int).Set(v)
	one := big.NewInt(1)
	for i := width - 1; i >= 0; i-- {
		bits[i] = int(new(big.Int).And(tmp, one).Int64())
		tmp.Rsh(tmp, 1)
	}
	return bits
}

func bitLen(v *big.Int) int {
	return v.BitLen()
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func randIntRange(lo, hi int) (int, error) {
	if hi <= lo {
		return lo, nil
	}
	span := big.NewInt(int64(hi - lo + 1))
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return lo + int(v.Int64()), nil
}

func randBelow(bound *big.Int) (*big.Int, error) {
	if bound.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	return rand.Int(rand.Reader, bound)
}

func shuffleInts(s []int) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		jv := int(j.Int64())
		s[i], s[jv] = s[jv], s[i]
	}
	return nil
}
