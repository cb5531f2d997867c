// Package client implements the uploader/downloader orchestration that
// the original's webview_api.py drove from a desktop UI: talk to the
// coordinator over HTTP, AES-encrypt/decrypt file bodies locally, and
// perform the commitment-verified share reconstruction of §4.10. Every
// cryptographic primitive comes from pkg/curve, pkg/eccenc, pkg/share,
// and pkg/filecrypt; this package only wires them together against the
// wire protocol.
package client

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/eccenc"
	"github.com/dstbp/vaultshard/pkg/filecrypt"
	"github.com/dstbp/vaultshard/pkg/koblitz"
	"github.com/dstbp/vaultshard/pkg/polynomial"
	"github.com/dstbp/vaultshard/pkg/share"
)

// Client drives the coordinator's HTTP API on behalf of an uploader or
// downloader identity.
type Client struct {
	CoordinatorAddr string
	HTTPClient      *http.Client
	PrivateKey      *big.Int
	PublicKey       curve.Point
	Log             zerolog.Logger
}

// SystemParameters fetches the active curve and threshold parameters.
func (c *Client) SystemParameters(ctx context.Context) (model.SystemParameters, error) {
	var params model.SystemParameters
	err := httpx.GetJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/system/parameters", &params)
	return params, err
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		UserID string `json:"user_id"`
	}
	req := map[string]string{"username": username, "password": password}
	if err := httpx.PostJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/user/register", req, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login authenticates username/password and returns the resolved user id.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		UserID string `json:"user_id"`
	}
	req := map[string]string{"username": username, "password": password}
	if err := httpx.PostJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/user/login", req, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// PublishPublicKey registers this client's public point under userID, so
// storage nodes can later layer-encrypt a downloaded share to it.
func (c *Client) PublishPublicKey(ctx context.Context, userID string) error {
	req := map[string]any{
		"user_id":    userID,
		"public_key": model.FromPoint(c.PublicKey),
	}
	return httpx.PostJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/user/public_key", req, nil)
}

// UploadResult is what Upload returns to the caller.
type UploadResult struct {
	FileID string
	Key    string // hex AES key, for display/backup purposes only
}

// Upload reads filePath, AES-encrypts its contents under a fresh
// CSPRNG key and IV, and submits it to the coordinator, which splits the
// key into shares and fans them out to storage nodes (§4.6).
func (c *Client) Upload(ctx context.Context, filePath, uploadUser string) (UploadResult, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("client: read file: %w", err)
	}

	key, err := filecrypt.NewKey()
	if err != nil {
		return UploadResult{}, err
	}
	iv, err := filecrypt.NewIV()
	if err != nil {
		return UploadResult{}, err
	}
	ciphertext, err := filecrypt.Encrypt(raw, key, iv)
	if err != nil {
		return UploadResult{}, err
	}

	dir, name := filepath.Split(filePath)
	req := map[string]any{
		"file_name":       name,
		"file_path":       dir,
		"file_size":       len(raw),
		"file_ciphertext": ciphertext,
		"file_iv":         iv,
		"file_hash":       filecrypt.Digest(raw),
		"file_key":        key,
		"upload_user":     uploadUser,
	}

	var resp struct {
		FileID string `json:"file_uuid"`
	}
	if err := httpx.PostJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/file/upload", req, &resp); err != nil {
		return UploadResult{}, err
	}

	c.Log.Info().Str("file_uuid", resp.FileID).Msg("file uploaded")
	return UploadResult{FileID: resp.FileID, Key: key}, nil
}

type fileDetailResponse struct {
	FileCiphertext string                     `json:"file_ciphertext"`
	FileIV         string                     `json:"file_iv"`
	FileName       string                     `json:"file_name"`
	FileHash       string                     `json:"file_hash"`
	Commits        map[string]wire.PointTuple `json:"commits"`
}

type encShareEntry struct {
	ServerID string `json:"server_id"`
	EncShare string `json:"enc_share"`
}

type fileDownloadResponse struct {
	EncSharesList []encShareEntry `json:"enc_shares_list"`
}

// Download resolves fileID's metadata and shares, reconstructs the AES
// key per §4.10's filter-and-continue verification, decrypts the file
// body, and writes it to destDir. Returns the saved path.
func (c *Client) Download(ctx context.Context, fileID, downloadUser, destDir string) (string, error) {
	params, err := c.SystemParameters(ctx)
	if err != nil {
		return "", err
	}
	curveParams, err := params.Curve()
	if err != nil {
		return "", err
	}
	codec := koblitz.NewCodec(curveParams)

	var detail fileDetailResponse
	detailURL := c.CoordinatorAddr + "/file/detail?file_uuid=" + url.QueryEscape(fileID)
	if err := httpx.GetJSON(ctx, c.HTTPClient, detailURL, &detail); err != nil {
		return "", err
	}

	var download fileDownloadResponse
	downloadReq := map[string]string{"file_uuid": fileID, "download_user": downloadUser}
	if err := httpx.PostJSON(ctx, c.HTTPClient, c.CoordinatorAddr+"/file/download", downloadReq, &download); err != nil {
		return "", err
	}

	commits := make(share.Commitments, len(detail.Commits))
	for idxStr, pt := range detail.Commits {
		idx, err := parseIndex(idxStr)
		if err != nil {
			return "", err
		}
		p, err := curve.FromTuple(curveParams, pt.X, pt.Y)
		if err != nil {
			return "", err
		}
		commits[idx] = p
	}

	var verified []polynomial.Point
	for _, entry := range download.EncSharesList {
		sid, err := wire.DecodeHexGrouped(entry.ServerID)
		if err != nil {
			c.Log.Warn().Str("server_id", entry.ServerID).Msg("unparseable server id, discarding share")
			continue
		}
		plain, err := eccenc.Decrypt(curveParams, codec, entry.EncShare, c.PrivateKey)
		if err != nil {
			c.Log.Warn().Str("server_id", entry.ServerID).Err(err).Msg("share decryption failed, discarding")
			continue
		}
		shareVal, ok := new(big.Int).SetString(string(plain), 16)
		if !ok {
			c.Log.Warn().Str("server_id", entry.ServerID).Msg("malformed share value, discarding")
			continue
		}
		if !share.VerifyShare(curveParams.G, curveParams.N, commits, sid, shareVal) {
			c.Log.Warn().Str("server_id", entry.ServerID).Msg("share failed commitment check, discarding")
			continue
		}
		verified = append(verified, polynomial.Point{X: sid, Y: shareVal})
	}

	if len(verified) < params.T {
		return "", apierr.ErrReconstructFailed
	}

	key, err := share.RecoverKey(verified, curveParams.N, params.T)
	if err != nil {
		return "", err
	}
	// hex(k̂) drops leading zero nibbles that were present in the
	// original file_key, so pad back out to the standard AES-128 key
	// width before decoding it as bytes.
	key = padHex(key, filecrypt.KeySize*2)

	plaintext, err := filecrypt.Decrypt(detail.FileCiphertext, key, detail.FileIV)
	if err != nil {
		return "", fmt.Errorf("client: decrypt file body: %w", err)
	}
	if filecrypt.Digest(plaintext) != detail.FileHash {
		return "", apierr.ErrIntegrityViolation
	}

	destPath := filepath.Join(destDir, detail.FileName)
	if err := os.WriteFile(destPath, plaintext, 0o644); err != nil {
		return "", fmt.Errorf("client: write file: %w", err)
	}

	c.Log.Info().Str("file_uuid", fileID).Str("path", destPath).Msg("file downloaded and verified")
	return destPath, nil
}

func padHex(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return fmt.Sprintf("%0*s", width, s)
}

func parseIndex(s string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(s, "%d", &idx); err != nil {
		return 0, fmt.Errorf("client: malformed commitment index %q: %w", s, err)
	}
	return idx, nil
}
