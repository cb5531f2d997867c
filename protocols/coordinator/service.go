// Package coordinator implements the coordinator HTTP service: system
// parameter distribution, server/user registration, upload orchestration
// (§4.6) and download aggregation (§4.9), generalized from
// SystemCenter/business/{core.py,routes.py}.
package coordinator

import (
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
)

// Collections names the coordinator's document collections.
type Collections struct {
	Files   string
	Servers string
	Users   string
	Params  string
}

// Service is the immutable per-process parameter struct for the
// coordinator (§9 Design Notes: replaces the original's mutable
// CenterContext with explicit argument passing over narrow interfaces).
type Service struct {
	Params      model.SystemParameters
	Curve       *curve.Curve
	DB          store.KeyValueDB
	Collections Collections
	PrivateKey  *big.Int
	Signer      *sm2sig.Signer
	HTTPClient  *http.Client
	NodeTimeout time.Duration
	Log         zerolog.Logger
}

// NewRouter builds the coordinator's chi router, CORS-enabled for
// browser-based clients as the teacher's retrieval-pack sibling repos do.
func NewRouter(s *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/system/parameters", s.handleGetSystemParameters)

	r.Post("/server/register", s.handleServerRegister)
	r.Post("/server/update_info", s.handleServerUpdateInfo)

	r.Post("/user/register", s.handleUserRegister)
	r.Post("/user/login", s.handleUserLogin)
	r.Post("/user/public_key", s.handleUserPublicKey)
	r.Post("/user/avatar", s.handleUserAvatar)

	r.Post("/file/upload", s.handleFileUpload)
	r.Post("/file/download", s.handleFileDownload)
	r.Get("/file/detail", s.handleFileDetail)
	r.Get("/file/list", s.handleFileList)
	r.Post("/file/delete", s.handleFileDelete)

	return r
}
