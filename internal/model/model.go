// Package model defines the persisted record shapes shared by the
// coordinator and storage node stores, generalized from
// SystemCenter/business/schema.py and CloudServer/business/schema.py's
// dataclasses. Big-integer fields route through internal/wire's hex
// codec on the JSON boundary; Mongo documents use the same Go types via
// the driver's native bson tags, with big.Int fields held as their
// decimal string form for that boundary instead.
package model

import (
	"math/big"
	"time"

	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
)

// ServerStatus mirrors ServerStatus in SystemCenter/business/schema.py.
type ServerStatus string

const (
	ServerActive      ServerStatus = "active"
	ServerOffline     ServerStatus = "offline"
	ServerMaintenance ServerStatus = "maintenance"
)

// UserStatus mirrors UserStatus in SystemCenter/business/schema.py.
type UserStatus string

const (
	UserActive       UserStatus = "active"
	UserFault        UserStatus = "fault"
	UserCancellation UserStatus = "cancellation"
)

// FileStatus mirrors FileStatus in SystemCenter/business/schema.py.
type FileStatus string

const (
	FileActive      FileStatus = "active"
	FileDeleted     FileStatus = "deleted"
	FileExpired     FileStatus = "expired"
	FileMaintenance FileStatus = "maintenance"
)

// SystemParameters is the shared curve and threshold configuration,
// generated once at coordinator startup and distributed to every role.
type SystemParameters struct {
	ID            string     `json:"_id" bson:"_id" cbor:"_id"`
	N             int        `json:"n" bson:"n" cbor:"n"`
	T             int        `json:"t" bson:"t" cbor:"t"`
	P             wire.Int   `json:"p" bson:"p" cbor:"p"`
	A             wire.Int   `json:"a" bson:"a" cbor:"a"`
	B             wire.Int   `json:"b" bson:"b" cbor:"b"`
	Gx            wire.Int   `json:"Gx" bson:"Gx" cbor:"Gx"`
	Gy            wire.Int   `json:"Gy" bson:"Gy" cbor:"Gy"`
	Order         wire.Int   `json:"N" bson:"N" cbor:"N"`
	HashAlgorithm string     `json:"H" bson:"H" cbor:"H"`
	SM2PublicKey  PointTuple `json:"SM2_PublicKey,omitempty" bson:"sm2_public_key,omitempty" cbor:"sm2_public_key,omitempty"`
}

// PointTuple is the [x, y] wire shape of a curve point. Its JSON form
// goes through MarshalJSON/UnmarshalJSON below; the cbor tags here
// instead govern fsstore's generic CBOR-backed persistence (§9 Design
// Notes), where X and Y round-trip as plain tagged bignums.
type PointTuple struct {
	X *big.Int `json:"-" cbor:"x"`
	Y *big.Int `json:"-" cbor:"y"`
}

// MarshalJSON renders [x, y], or null when both coordinates are nil.
func (p PointTuple) MarshalJSON() ([]byte, error) {
	t := wire.PointTuple{X: p.X, Y: p.Y}
	return t.MarshalJSON()
}

// UnmarshalJSON parses [x, y] or null.
func (p *PointTuple) UnmarshalJSON(data []byte) error {
	var t wire.PointTuple
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	p.X, p.Y = t.X, t.Y
	return nil
}

// ServerRecord is a registered storage node (ServerInfo in the source schema).
type ServerRecord struct {
	ID            string       `json:"_id" bson:"_id" cbor:"_id"`
	PublicKey     PointTuple   `json:"public_key" bson:"public_key" cbor:"public_key"`
	Address       string       `json:"address" bson:"address" cbor:"address"`
	Status        ServerStatus `json:"status" bson:"status" cbor:"status"`
	LastHeartbeat *time.Time   `json:"last_heartbeat,omitempty" bson:"last_heartbeat,omitempty" cbor:"last_heartbeat,omitempty"`
	LoadFactor    float64      `json:"load_factor" bson:"load_factor" cbor:"load_factor"`
}

// UserRecord is a registered client (UserInfo in the source schema).
type UserRecord struct {
	ID           string     `json:"_id" bson:"_id" cbor:"_id"`
	Username     string     `json:"username" bson:"username" cbor:"username"`
	PasswordHash string     `json:"password" bson:"password" cbor:"password"`
	PublicKey    PointTuple `json:"public_key,omitempty" bson:"public_key,omitempty" cbor:"public_key,omitempty"`
	Status       UserStatus `json:"status" bson:"status" cbor:"status"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" cbor:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" bson:"last_login,omitempty" cbor:"last_login,omitempty"`
	Avatar       string     `json:"avatar,omitempty" bson:"avatar,omitempty" cbor:"avatar,omitempty"`
}

// FileRecord is the coordinator's per-file metadata, generalized from
// FileInfo with an added FileIV field (resolved Open Question b: a fresh
// CSPRNG IV per file rather than the original's fixed IV).
type FileRecord struct {
	ID             string                `json:"_id" bson:"_id" cbor:"_id"`
	FileCiphertext string                `json:"file_ciphertext" bson:"file_ciphertext" cbor:"file_ciphertext"`
	FileIV         string                `json:"file_iv" bson:"file_iv" cbor:"file_iv"`
	FilePath       string                `json:"file_path" bson:"file_path" cbor:"file_path"`
	FileName       string                `json:"file_name" bson:"file_name" cbor:"file_name"`
	FileSize       int64                 `json:"file_size" bson:"file_size" cbor:"file_size"`
	FileHash       string                `json:"file_hash" bson:"file_hash" cbor:"file_hash"`
	UploadUser     string                `json:"upload_user" bson:"upload_user" cbor:"upload_user"`
	UploadTime     time.Time             `json:"upload_time" bson:"upload_time" cbor:"upload_time"`
	Status         FileStatus            `json:"status" bson:"status" cbor:"status"`
	Commits        map[string]PointTuple `json:"commits,omitempty" bson:"commits,omitempty" cbor:"commits,omitempty"`
	DownloadCount  int                   `json:"download_count" bson:"download_count" cbor:"download_count"`
	GridRef        string                `json:"grid_ref,omitempty" bson:"grid_ref,omitempty" cbor:"grid_ref,omitempty"`
}

// EncShareRecord is a storage node's local per-file share record
// (EncShareInfo in CloudServer/business/schema.py), at-most-once per
// file id (§4.7).
type EncShareRecord struct {
	FileID    string     `json:"_id" bson:"_id" cbor:"_id"`
	EncShare  string     `json:"enc_share" bson:"enc_share" cbor:"enc_share"`
	ServerID  string     `json:"server_id" bson:"server_id" cbor:"server_id"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at" cbor:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty" cbor:"expires_at,omitempty"`
}

// Signcryption is the {ciphertext, signature} envelope fanned out to a
// storage node at share-generation time (§4.6, §4.7).
type Signcryption struct {
	ServerID   string      `json:"server_id"`
	FileID     string      `json:"file_uuid"`
	Ciphertext string      `json:"ciphertext"`
	Signature  [2]wire.Int `json:"signature"`
}

// Curve rebuilds the runtime curve.Curve described by p.
func (p SystemParameters) Curve() (*curve.Curve, error) {
	return curve.New(p.P.Int, p.A.Int, p.B.Int, p.Gx.Int, p.Gy.Int, p.Order.Int)
}

// ToPoint resolves a PointTuple against c, returning curve.Infinity for
// the null ([nil,nil]) case.
func (p PointTuple) ToPoint(c *curve.Curve) (curve.Point, error) {
	return curve.FromTuple(c, p.X, p.Y)
}

// FromPoint renders a curve.Point as its wire PointTuple.
func FromPoint(pt curve.Point) PointTuple {
	x, y := pt.ToTuple()
	return PointTuple{X: x, Y: y}
}
