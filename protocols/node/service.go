// Package node implements the storage-node HTTP service: share intake
// (§4.7), download-request blind re-encryption (§4.8), and delete
// handling, generalized from CloudServer/business/{core.py,routes.py}.
package node

import (
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/eccenc"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
)

// shareExpiry is the node-local retention window for a stored share
// (§4.7: "expires_at=now + 30d").
const shareExpiry = 30 * 24 * time.Hour

// Service is the immutable per-process parameter struct for a storage
// node, replacing the original's mutable ServerContext (§9 Design Notes).
type Service struct {
	ServerID       string
	Curve          *curve.Curve
	PrivateKey     *big.Int
	PublicKey      curve.Point
	CoordinatorSig *sm2sig.Signer
	CoordinatorPub curve.Point
	DB             store.KeyValueDB
	Collection     string
	Log            zerolog.Logger
}

// Routes mounts the node's three handlers onto r.
func (s *Service) Routes(r chi.Router) {
	r.Post("/sign_cryption", s.handleSignCryption)
	r.Post("/download_request", s.handleDownloadRequest)
	r.Post("/delete_request", s.handleDeleteRequest)
}

type signCryptionRequest struct {
	ServerID   string      `json:"server_id"`
	FileID     string      `json:"file_uuid"`
	Ciphertext string      `json:"ciphertext"`
	Signature  [2]wire.Int `json:"signature"`
}

func (s *Service) handleSignCryption(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req signCryptionRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	sig := sm2sig.Signature{R: req.Signature[0].Int, S: req.Signature[1].Int}
	za, err := s.CoordinatorSig.ComputeZA(s.CoordinatorPub)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	if !s.CoordinatorSig.Verify(sig, []byte(req.Ciphertext), za, s.CoordinatorPub) {
		log.Warn().Str("file_uuid", req.FileID).Msg("signature verification failed")
		httpx.RespondErr(w, apierr.New(wire.CodeSignatureInvalid, nil))
		return
	}

	existing := model.EncShareRecord{}
	if err := s.DB.FindOne(ctx, s.Collection, map[string]any{"_id": req.FileID}, &existing); err == nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDuplicateFile, nil))
		return
	} else if err != store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	now := time.Now()
	expires := now.Add(shareExpiry)
	record := model.EncShareRecord{
		FileID:    req.FileID,
		EncShare:  req.Ciphertext,
		ServerID:  req.ServerID,
		CreatedAt: now,
		ExpiresAt: &expires,
	}
	if err := s.DB.Insert(ctx, s.Collection, record); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeSigncryptionError, err))
		return
	}

	log.Info().Str("file_uuid", req.FileID).Msg("signcryption stored")
	httpx.RespondOK(w, nil)
}

type downloadUser struct {
	PublicKey wire.PointTuple `json:"public_key"`
}

type downloadRequest struct {
	FileID       string       `json:"file_uuid"`
	DownloadUser downloadUser `json:"download_user"`
}

type downloadResponse struct {
	ServerID string `json:"server_id"`
	EncShare string `json:"enc_share"`
}

func (s *Service) handleDownloadRequest(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req downloadRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	var record model.EncShareRecord
	if err := s.DB.FindOne(ctx, s.Collection, map[string]any{"_id": req.FileID}, &record); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeShareNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDownloadError, err))
		return
	}

	userPub, err := curve.FromTuple(s.Curve, req.DownloadUser.PublicKey.X, req.DownloadUser.PublicKey.Y)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDownloadError, err))
		return
	}

	layered, err := eccenc.AddLayer(s.Curve, record.EncShare, userPub)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDownloadError, err))
		return
	}
	stripped, err := eccenc.StripLayer(s.Curve, layered, "c1", s.PrivateKey)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeDownloadError, err))
		return
	}

	log.Info().Str("file_uuid", req.FileID).Msg("download request served")
	httpx.RespondOK(w, downloadResponse{ServerID: s.ServerID, EncShare: stripped})
}

type deleteRequest struct {
	FileID string `json:"file_uuid"`
}

func (s *Service) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req deleteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	if err := s.DB.DeleteOne(ctx, s.Collection, map[string]any{"_id": req.FileID}); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeShareNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	log.Info().Str("file_uuid", req.FileID).Msg("share deleted")
	httpx.RespondOK(w, nil)
}
