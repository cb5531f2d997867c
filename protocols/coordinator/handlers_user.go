package coordinator

import (
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/ids"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/wire"
)

type userRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRegisterResponse struct {
	UserID string `json:"user_id"`
}

func (s *Service) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.Log)
	var req userRegisterRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.RespondErr(w, apierr.New(wire.CodeMissingParam, nil))
		return
	}

	var existing model.UserRecord
	if err := s.DB.FindOne(ctx, s.Collections.Users, map[string]any{"username": req.Username}, &existing); err == nil {
		httpx.RespondErr(w, apierr.New(wire.CodeUsernameExists, nil))
		return
	} else if err != store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	exists := func(candidate string) (bool, error) {
		var e model.UserRecord
		err := s.DB.FindOne(ctx, s.Collections.Users, map[string]any{"_id": candidate}, &e)
		if err == store.ErrNotFound {
			return false, nil
		}
		return err == nil, err
	}
	userID, err := ids.NewUserID(exists)
	if err != nil {
		httpx.RespondErr(w, err)
		return
	}

	now := time.Now()
	record := model.UserRecord{
		ID:           userID,
		Username:     req.Username,
		PasswordHash: string(hash),
		Status:       model.UserActive,
		CreatedAt:    now,
		LastLogin:    &now,
	}
	if err := s.DB.Insert(ctx, s.Collections.Users, record); err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	log.Info().Str("user_id", userID).Msg("user registered")
	httpx.RespondOK(w, userRegisterResponse{UserID: userID})
}

type userLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userLoginResponse struct {
	UserID    string          `json:"user_id"`
	PublicKey wire.PointTuple `json:"public_key,omitempty"`
	Avatar    string          `json:"avatar,omitempty"`
}

func (s *Service) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	var req userLoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}

	var user model.UserRecord
	if err := s.DB.FindOne(ctx, s.Collections.Users, map[string]any{"username": req.Username}, &user); err == store.ErrNotFound {
		httpx.RespondErr(w, apierr.New(wire.CodeUserNotFound, nil))
		return
	} else if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeWrongPassword, nil))
		return
	}

	now := time.Now()
	_ = s.DB.UpdateOne(ctx, s.Collections.Users,
		map[string]any{"_id": user.ID},
		map[string]any{"last_login": now})

	httpx.RespondOK(w, userLoginResponse{
		UserID:    user.ID,
		PublicKey: wire.PointTuple{X: user.PublicKey.X, Y: user.PublicKey.Y},
		Avatar:    user.Avatar,
	})
}

type userPublicKeyRequest struct {
	Username  string          `json:"username"`
	UserID    string          `json:"user_id"`
	PublicKey wire.PointTuple `json:"public_key"`
}

func (s *Service) handleUserPublicKey(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	var req userPublicKeyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}
	err := s.DB.UpdateOne(ctx, s.Collections.Users,
		map[string]any{"_id": req.UserID},
		map[string]any{"public_key": model.PointTuple{X: req.PublicKey.X, Y: req.PublicKey.Y}})
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	httpx.RespondOK(w, nil)
}

type userAvatarRequest struct {
	UserID string `json:"user_id"`
	Avatar string `json:"avatar"`
}

func (s *Service) handleUserAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logging.WithRequestLogger(r.Context(), s.Log)
	var req userAvatarRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondErr(w, err)
		return
	}
	err := s.DB.UpdateOne(ctx, s.Collections.Users,
		map[string]any{"_id": req.UserID},
		map[string]any{"avatar": req.Avatar})
	if err != nil {
		httpx.RespondErr(w, apierr.New(wire.CodeInternalError, err))
		return
	}
	httpx.RespondOK(w, nil)
}
