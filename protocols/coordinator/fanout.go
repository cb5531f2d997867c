package coordinator

import (
	"context"
	"crypto/rand"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/model"
)

// selectRandomServers draws count distinct servers uniformly at random
// from servers via crypto/rand (§9: every random draw is CSPRNG), as the
// original's secrets.SystemRandom().sample.
func selectRandomServers(servers []model.ServerRecord, count int) ([]model.ServerRecord, error) {
	if count > len(servers) {
		count = len(servers)
	}
	pool := append([]model.ServerRecord(nil), servers...)
	for i := len(pool) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, err
		}
		jv := int(j.Int64())
		pool[i], pool[jv] = pool[jv], pool[i]
	}
	return pool[:count], nil
}

// fanoutResult is one node's outcome from a broadcast, error non-nil on
// per-node failure — failures are surfaced per-node, never aggregate
// failures (§5 concurrency model).
type fanoutResult[T any] struct {
	ServerID string
	Value    T
	Err      error
}

// broadcast issues fn concurrently against every server in servers,
// bounded by s.NodeTimeout, collecting a per-server result (success or
// error) without failing the whole broadcast on a single node error.
func broadcast[T any](ctx context.Context, s *Service, servers []model.ServerRecord, fn func(ctx context.Context, server model.ServerRecord) (T, error)) []fanoutResult[T] {
	ctx, cancel := context.WithTimeout(ctx, s.NodeTimeout)
	defer cancel()

	results := make([]fanoutResult[T], len(servers))
	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		i, srv := i, srv
		g.Go(func() error {
			v, err := fn(gctx, srv)
			results[i] = fanoutResult[T]{ServerID: srv.ID, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) distributeShares(ctx context.Context, servers []model.ServerRecord, payloads map[string]model.Signcryption) []fanoutResult[struct{}] {
	return broadcast(ctx, s, servers, func(ctx context.Context, server model.ServerRecord) (struct{}, error) {
		payload, ok := payloads[server.ID]
		if !ok {
			return struct{}{}, nil
		}
		err := httpx.PostJSON(ctx, s.HTTPClient, server.Address+"/sign_cryption", payload, nil)
		return struct{}{}, err
	})
}

type downloadNodeResponse struct {
	ServerID string `json:"server_id"`
	EncShare string `json:"enc_share"`
}

func (s *Service) collectShares(ctx context.Context, servers []model.ServerRecord, fileID string, downloadUser map[string]any) []fanoutResult[downloadNodeResponse] {
	return broadcast(ctx, s, servers, func(ctx context.Context, server model.ServerRecord) (downloadNodeResponse, error) {
		req := map[string]any{"file_uuid": fileID, "download_user": downloadUser}
		var resp downloadNodeResponse
		err := httpx.PostJSON(ctx, s.HTTPClient, server.Address+"/download_request", req, &resp)
		return resp, err
	})
}

// broadcastDelete notifies every server to drop its share for fileID
// (§3 lifecycles: cascade delete, owner-checked by the caller).
func (s *Service) broadcastDelete(ctx context.Context, servers []model.ServerRecord, fileID string) []fanoutResult[struct{}] {
	return broadcast(ctx, s, servers, func(ctx context.Context, server model.ServerRecord) (struct{}, error) {
		req := map[string]any{"file_uuid": fileID}
		err := httpx.PostJSON(ctx, s.HTTPClient, server.Address+"/delete_request", req, nil)
		return struct{}{}, err
	})
}
