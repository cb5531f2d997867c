package coordinator

import (
	"net/http"
	"time"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/ids"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/wire"
)

type serverRegisterRequest struct {
	Address   string          `json:"address"`
	PublicKey wire.PointTuple `json:"public_key"`
}

type serverRegisterResponse struct {
	ServerID string `json:"server_id"`
}

func (s *Service) handleServerRegister(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req serverRegisterRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}
	if req.Address == "" || req.PublicKey.X == nil {
		httpx.RespondErr(w, apierr.New(wire.CodeMissingParam, nil))
		return
	}

	exists := func(candidate string) (bool, error) {
		var existing model.ServerRecord
		err := s.DB.FindOne(ctx, s.Collections.Servers, map[string]any{"_id": candidate}, &existing)
		if err == store.ErrNotFound {
			return false, nil
		}
		return err == nil, err
	}
	serverID, err := ids.NewServerID(exists)
	if err != nil {
		httpx.RespondErr(w, err)
		return
	}

	now := time.Now()
	record := model.ServerRecord{
		ID:            serverID,
		PublicKey:     model.PointTuple{X: req.PublicKey.X, Y: req.PublicKey.Y},
		Address:       req.Address,
		Status:        model.ServerActive,
		LastHeartbeat: &now,
	}
	if err := s.DB.Insert(ctx, s.Collections.Servers, record); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	log.Info().Str("server_id", serverID).Msg("server registered")
	httpx.RespondOK(w, serverRegisterResponse{ServerID: serverID})
}

type serverUpdateInfoRequest struct {
	SID     string `json:"sid"`
	Address string `json:"address"`
}

func (s *Service) handleServerUpdateInfo(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	var req serverUpdateInfoRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}
	err := s.DB.UpdateOne(ctx, s.Collections.Servers,
		map[string]any{"_id": req.SID},
		map[string]any{"address": req.Address})
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	httpx.RespondOK(w, nil)
}
