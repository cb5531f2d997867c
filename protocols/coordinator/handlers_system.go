package coordinator

import (
	"net/http"

	"github.com/dstbp/vaultshard/internal/httpx"
)

func (s *Service) handleGetSystemParameters(w http.ResponseWriter, r *http.Request) {
	httpx.RespondOK(w, s.Params)
}
