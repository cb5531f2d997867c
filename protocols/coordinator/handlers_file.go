package coordinator

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/ids"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/eccenc"
	"github.com/dstbp/vaultshard/pkg/koblitz"
	"github.com/dstbp/vaultshard/pkg/share"
)

type fileUploadRequest struct {
	FileName       string `json:"file_name"`
	FilePath       string `json:"file_path"`
	FileSize       int64  `json:"file_size"`
	FileCiphertext string `json:"file_ciphertext"`
	FileIV         string `json:"file_iv"`
	FileHash       string `json:"file_hash"`
	FileKey        string `json:"file_key"`
	UploadUser     string `json:"upload_user"`
}

type fileUploadResponse struct {
	FileID string `json:"file_uuid"`
}

// generateSigncryptionsCommits builds the sharing polynomial, Feldman
// commitments, and a per-node signcrypted share, mirroring
// SystemCenter/business/core.py's __generate_signcryptions_commits
// (§4.6).
func (s *Service) generateSigncryptionsCommits(fileID, secretHex string, servers []model.ServerRecord) (map[string]model.Signcryption, map[string]model.PointTuple, error) {
	poly, err := share.GeneratePolynomial(s.Params.T, s.Curve.N, secretHex)
	if err != nil {
		return nil, nil, err
	}
	commitPoints := share.Commit(s.Curve.G, poly)

	commits := make(map[string]model.PointTuple, len(commitPoints))
	for idx, pt := range commitPoints {
		commits[strconv.Itoa(idx)] = model.FromPoint(pt)
	}

	codec := koblitz.NewCodec(s.Curve)
	za, err := s.Signer.ComputeZA(s.Curve.G.ScalarMult(s.PrivateKey))
	if err != nil {
		return nil, nil, err
	}

	signcryptions := make(map[string]model.Signcryption, len(servers))
	for _, srv := range servers {
		sid, err := wire.DecodeHexGrouped(srv.ID)
		if err != nil {
			return nil, nil, err
		}
		shareVal := share.EvaluateShare(poly, sid)
		pub, err := srv.PublicKey.ToPoint(s.Curve)
		if err != nil {
			return nil, nil, err
		}
		encShare, err := eccenc.Encrypt(s.Curve, codec, []byte(fmt.Sprintf("%x", shareVal)), pub)
		if err != nil {
			return nil, nil, err
		}
		sig, err := s.Signer.Sign([]byte(encShare), za, s.PrivateKey)
		if err != nil {
			return nil, nil, err
		}
		signcryptions[srv.ID] = model.Signcryption{
			ServerID:   srv.ID,
			FileID:     fileID,
			Ciphertext: encShare,
			Signature:  [2]wire.Int{wire.NewInt(sig.R), wire.NewInt(sig.S)},
		}
	}
	return signcryptions, commits, nil
}

func (s *Service) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req fileUploadRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	var servers []model.ServerRecord
	if err := s.DB.FindMany(ctx, s.Collections.Servers, map[string]any{"status": model.ServerActive}, &servers); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	fileID := ids.FileID(req.FilePath, req.FileHash, req.UploadUser)

	signcryptions, commits, err := s.generateSigncryptionsCommits(fileID, req.FileKey, servers)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	record := model.FileRecord{
		ID:             fileID,
		FileCiphertext: req.FileCiphertext,
		FileIV:         req.FileIV,
		FilePath:       req.FilePath,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		FileHash:       req.FileHash,
		UploadUser:     req.UploadUser,
		UploadTime:     time.Now(),
		Status:         model.FileActive,
		Commits:        commits,
	}
	if err := s.DB.Insert(ctx, s.Collections.Files, record); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDuplicateFile, err))
		return
	}

	results := s.distributeShares(ctx, servers, signcryptions)
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Str("server_id", res.ServerID).Err(res.Err).Msg("share distribution failed")
		}
	}

	log.Info().Str("file_uuid", fileID).Msg("file uploaded")
	httpx.RespondOK(w, fileUploadResponse{FileID: fileID})
}

type fileDownloadRequest struct {
	FileID       string `json:"file_uuid"`
	DownloadUser string `json:"download_user"`
}

type encShareEntry struct {
	ServerID string `json:"server_id"`
	EncShare string `json:"enc_share"`
}

type fileDownloadResponse struct {
	EncSharesList []encShareEntry `json:"enc_shares_list"`
}

func (s *Service) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req fileDownloadRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	var user model.UserRecord
	if err := s.DB.FindOne(ctx, s.Collections.Users, map[string]any{"username": req.DownloadUser}, &user); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeUserNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	var servers []model.ServerRecord
	if err := s.DB.FindMany(ctx, s.Collections.Servers, map[string]any{"status": model.ServerActive}, &servers); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	if len(servers) < s.Params.T {
		httpx.RespondErr(w, apierr.Newf(wire.CodeInternalError, "insufficient active nodes"))
		return
	}
	chosen, err := selectRandomServers(servers, s.Params.T)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	downloadUser := map[string]any{
		"username":   user.Username,
		"public_key": wire.PointTuple{X: user.PublicKey.X, Y: user.PublicKey.Y},
	}
	results := s.collectShares(ctx, chosen, req.FileID, downloadUser)

	var shares []encShareEntry
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Str("server_id", res.ServerID).Err(res.Err).Msg("download request failed")
			continue
		}
		shares = append(shares, encShareEntry{ServerID: res.Value.ServerID, EncShare: res.Value.EncShare})
	}

	httpx.RespondOK(w, fileDownloadResponse{EncSharesList: shares})
}

type fileDetailResponse struct {
	ID            string                     `json:"_id"`
	FileCiphertext string                    `json:"file_ciphertext"`
	FileIV        string                     `json:"file_iv"`
	FileName      string                     `json:"file_name"`
	FileSize      int64                      `json:"file_size"`
	FileHash      string                     `json:"file_hash"`
	DownloadCount int                        `json:"download_count"`
	Commits       map[string]model.PointTuple `json:"commits,omitempty"`
}

func (s *Service) handleFileDetail(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	fileID := r.URL.Query().Get("file_uuid")
	if fileID == "" {
		httpx.RespondErr(w, apierr.New(wire.CodeMissingParam, nil))
		return
	}

	var file model.FileRecord
	if err := s.DB.FindOne(ctx, s.Collections.Files, map[string]any{"_id": fileID}, &file); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeFileNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	_ = s.DB.UpdateOne(ctx, s.Collections.Files,
		map[string]any{"_id": fileID},
		map[string]any{"download_count": file.DownloadCount + 1})

	httpx.RespondOK(w, fileDetailResponse{
		ID:             file.ID,
		FileCiphertext: file.FileCiphertext,
		FileIV:         file.FileIV,
		FileName:       file.FileName,
		FileSize:       file.FileSize,
		FileHash:       file.FileHash,
		DownloadCount:  file.DownloadCount,
		Commits:        file.Commits,
	})
}

type fileListEntry struct {
	ID       string `json:"_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

func (s *Service) handleFileList(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	filter := map[string]any{"status": model.FileActive}
	if username := r.URL.Query().Get("username"); username != "" {
		filter["upload_user"] = username
	}

	var files []model.FileRecord
	if err := s.DB.FindMany(ctx, s.Collections.Files, filter, &files); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	entries := make([]fileListEntry, len(files))
	for i, f := range files {
		entries[i] = fileListEntry{ID: f.ID, FileName: f.FileName, FileSize: f.FileSize}
	}
	httpx.RespondOK(w, map[string]any{"files_info": entries})
}

type fileDeleteRequest struct {
	FileID   string `json:"file_uuid"`
	Username string `json:"username"`
}

func (s *Service) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req fileDeleteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	var file model.FileRecord
	if err := s.DB.FindOne(ctx, s.Collections.Files, map[string]any{"_id": req.FileID}, &file); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeFileNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	if file.UploadUser != req.Username {
		httpx.RespondErr(w, apierr.New(wire.CodeUnauthorized, nil))
		return
	}

	var servers []model.ServerRecord
	if err := s.DB.FindMany(ctx, s.Collections.Servers, map[string]any{"status": model.ServerActive}, &servers); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	results := s.broadcastDelete(ctx, servers, req.FileID)
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Str("server_id", res.ServerID).Err(res.Err).Msg("node-side share delete failed")
		}
	}

	if err := s.DB.DeleteOne(ctx, s.Collections.Files, map[string]any{"_id": req.FileID}); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	log.Info().Str("file_uuid", req.FileID).Msg("file deleted")
	httpx.RespondOK(w, nil)
}
