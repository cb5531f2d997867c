// Package ids generates the identifiers used across the system: a
// deterministic file id derived from upload metadata, and random
// server/user ids with collision-retry, mirroring
// SystemCenter/business/core.py's generate_unique_id.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/wire"
)

// MaxRetries bounds id-collision retries (§6 error codes 103/104).
const MaxRetries = 5

// FileID derives the deterministic, content-addressed file identifier
// from the upload path, file hash, and uploading user.
func FileID(filePath, fileHash, uploadUser string) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s||%s||%s", filePath, fileHash, uploadUser)))
	return hex.EncodeToString(sum[:])
}

// Exists reports whether a candidate id is already taken; callers supply
// this as a closure over their store lookup.
type Exists func(candidate string) (bool, error)

// NewServerID generates a random server id, retrying on collision up to
// MaxRetries times.
func NewServerID(exists Exists) (string, error) {
	return generateWithRetry("sid", 32, exists, wire.CodeServerIDExhausted)
}

// NewUserID generates a random user id, retrying on collision up to
// MaxRetries times.
func NewUserID(exists Exists) (string, error) {
	return generateWithRetry("uid", 16, exists, wire.CodeUserIDExhausted)
}

func generateWithRetry(prefix string, length int, exists Exists, exhaustedCode int) (string, error) {
	for attempt := 0; attempt < MaxRetries; attempt++ {
		randNum, err := rand.Int(rand.Reader, big.NewInt(1<<62))
		if err != nil {
			return "", err
		}
		seed := fmt.Sprintf("%s_%d&%d", prefix, time.Now().UnixNano(), randNum.Int64())
		sum := blake3.Sum256([]byte(seed))
		candidate := hex.EncodeToString(sum[:length/2])

		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apierr.New(exhaustedCode, nil)
}
