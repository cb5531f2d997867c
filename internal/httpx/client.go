package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/wire"
)

// PostJSON POSTs body as JSON to url and decodes the standard envelope's
// data field into dest (which may be nil to discard it). Returns a typed
// *apierr.Error carrying the peer's error_code on a non-success envelope.
func PostJSON(ctx context.Context, client *http.Client, url string, body any, dest any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpx: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("httpx: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return apierr.New(wire.CodeNetworkTimeout, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, dest)
}

// GetJSON issues a GET request to url and decodes the standard envelope's
// data field into dest.
func GetJSON(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpx: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apierr.New(wire.CodeNetworkTimeout, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, dest)
}

func decodeEnvelope(resp *http.Response, dest any) error {
	var envelope struct {
		Data         json.RawMessage `json:"data"`
		Status       string          `json:"status"`
		ErrorCode    int             `json:"error_code"`
		ErrorMessage string          `json:"error_message,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apierr.New(wire.CodeServerError, err)
	}
	if envelope.ErrorCode != wire.CodeSuccess {
		return apierr.Newf(envelope.ErrorCode, "%s", envelope.ErrorMessage)
	}
	if dest != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			return fmt.Errorf("httpx: decode response data: %w", err)
		}
	}
	return nil
}
