// Package httpx provides the small decode/respond helpers shared by the
// coordinator and node HTTP services, keeping the standard envelope
// (§6) and error-code mapping in one place instead of scattered through
// handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/wire"
)

// Decode parses the JSON request body into dest, returning a typed
// CodeInvalidJSON error on failure.
func Decode(r *http.Request, dest any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apierr.New(wire.CodeInvalidJSON, err)
	}
	return nil
}

// Respond writes envelope as JSON with the status implied by its error code.
func Respond(w http.ResponseWriter, envelope wire.Envelope) {
	status := http.StatusOK
	if envelope.ErrorCode != wire.CodeSuccess {
		status = statusForCode(envelope.ErrorCode)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

// RespondOK writes a success envelope wrapping data.
func RespondOK(w http.ResponseWriter, data any) {
	Respond(w, wire.Success(data))
}

// RespondErr maps err to its envelope and writes it.
func RespondErr(w http.ResponseWriter, err error) {
	Respond(w, apierr.ToEnvelope(err))
}

func statusForCode(code int) int {
	switch code {
	case wire.CodeUnauthorized, wire.CodeWrongPassword, wire.CodeSignatureInvalid:
		return http.StatusUnauthorized
	case wire.CodeUserNotFound, wire.CodeResourceNotFound, wire.CodeFileNotFound, wire.CodeShareNotFound:
		return http.StatusNotFound
	case wire.CodeDuplicateFile, wire.CodeUsernameExists:
		return http.StatusConflict
	case wire.CodeInvalidJSON, wire.CodeMissingParam:
		return http.StatusBadRequest
	case wire.CodeRateLimited:
		return http.StatusTooManyRequests
	case wire.CodeNetworkTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
