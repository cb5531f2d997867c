package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/dstbp/vaultshard/internal/config"
	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/keyfile"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
	"github.com/dstbp/vaultshard/protocols/node"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the storage-node role",
}

var nodeServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storage-node HTTP daemon",
	RunE:  runNodeServe,
}

func init() {
	f := nodeServeCmd.Flags()
	f.String("host", "", "Bind host")
	f.Int("port", 0, "Bind port")
	f.String("mongo-uri", "", "MongoDB connection URI (empty: use the embedded store)")
	f.String("database-name", "", "Database name")
	f.String("storage-dir", "", "Directory for the embedded store and keypair")
	f.String("private-key-path", "", "Path to this node's private key PEM")
	f.String("public-key-path", "", "Path to this node's public key PEM")
	f.String("coordinator-addr", "", "Coordinator base URL")

	nodeCmd.AddCommand(nodeServeCmd)
}

func runNodeServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadNode(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	log := logging.New("node", nil, cfg.Debug)

	ctx := context.Background()
	db, err := openStore(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("vaultctl: open store: %w", err)
	}

	httpClient := &http.Client{}
	var params model.SystemParameters
	if err := httpx.GetJSON(ctx, httpClient, cfg.CoordinatorAddr+"/system/parameters", &params); err != nil {
		return fmt.Errorf("vaultctl: fetch system parameters: %w", err)
	}
	curveParams, err := params.Curve()
	if err != nil {
		return fmt.Errorf("vaultctl: rebuild curve from system parameters: %w", err)
	}

	priv, pub, err := keyfile.EnsureKeypair(curveParams, cfg.PrivateKeyPath, cfg.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("vaultctl: load or generate node keypair: %w", err)
	}
	coordinatorPub, err := params.SM2PublicKey.ToPoint(curveParams)
	if err != nil {
		return fmt.Errorf("vaultctl: decode coordinator public key: %w", err)
	}

	pubX, pubY := pub.ToTuple()
	serverID, err := registerOrLoadServerID(ctx, httpClient, cfg, pubX, pubY)
	if err != nil {
		return fmt.Errorf("vaultctl: register with coordinator: %w", err)
	}

	service := &node.Service{
		ServerID:       serverID,
		Curve:          curveParams,
		PrivateKey:     priv,
		PublicKey:      pub,
		CoordinatorSig: &sm2sig.Signer{Curve: curveParams, UserID: params.ID},
		CoordinatorPub: coordinatorPub,
		DB:             db,
		Collection:     cfg.SharesCollection,
		Log:            log,
	}

	r := chi.NewRouter()
	service.Routes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().Str("addr", addr).Str("server_id", serverID).Msg("storage node listening")
	return http.ListenAndServe(addr, r)
}

// registerOrLoadServerID returns this node's coordinator-assigned id,
// reusing the one cached next to its keypair across restarts so that
// shares recorded under it remain reachable, and registering afresh with
// the coordinator otherwise (§6).
func registerOrLoadServerID(ctx context.Context, httpClient *http.Client, cfg config.NodeConfig, x, y *big.Int) (string, error) {
	idPath := filepath.Join(filepath.Dir(cfg.PrivateKeyPath), "server_id.txt")
	if raw, err := os.ReadFile(idPath); err == nil {
		return strings.TrimSpace(string(raw)), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	req := map[string]any{
		"address":    cfg.Host + ":" + fmt.Sprint(cfg.Port),
		"public_key": wire.PointTuple{X: x, Y: y},
	}
	var resp struct {
		ServerID string `json:"server_id"`
	}
	if err := httpx.PostJSON(ctx, httpClient, cfg.CoordinatorAddr+"/server/register", req, &resp); err != nil {
		return "", err
	}
	if err := os.WriteFile(idPath, []byte(resp.ServerID), 0o644); err != nil {
		return "", err
	}
	return resp.ServerID, nil
}
