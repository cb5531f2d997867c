package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dstbp/vaultshard/internal/config"
	"github.com/dstbp/vaultshard/internal/ids"
	"github.com/dstbp/vaultshard/internal/keyfile"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
	"github.com/dstbp/vaultshard/protocols/coordinator"
)

var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Run the coordinator role",
}

var coordinatorServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coordinator HTTP daemon",
	RunE:  runCoordinatorServe,
}

func init() {
	f := coordinatorServeCmd.Flags()
	f.String("host", "", "Bind host")
	f.Int("port", 0, "Bind port")
	f.String("mongo-uri", "", "MongoDB connection URI (empty: use the embedded store)")
	f.String("database-name", "", "Database name")
	f.String("storage-dir", "", "Directory for the embedded store and SM2 keypair")
	f.Int("threshold", 0, "Share reconstruction threshold T, for a freshly generated system")
	f.Int("node-count", 0, "Share count N, for a freshly generated system")
	f.Duration("node-timeout", 0, "Per-request timeout when fanning out to storage nodes")

	coordinatorCmd.AddCommand(coordinatorServeCmd)
}

func runCoordinatorServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadCoordinator(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	log := logging.New("coordinator", nil, cfg.Debug)

	ctx := context.Background()
	db, err := openStore(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("vaultctl: open store: %w", err)
	}

	priv, pub, err := keyfile.EnsureKeypair(defaultCurve(), cfg.PrivateKeyPath, cfg.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("vaultctl: load or generate coordinator keypair: %w", err)
	}

	params, err := loadOrInitSystemParameters(ctx, db, cfg, pub)
	if err != nil {
		return fmt.Errorf("vaultctl: load system parameters: %w", err)
	}
	curveParams, err := params.Curve()
	if err != nil {
		return fmt.Errorf("vaultctl: rebuild curve from system parameters: %w", err)
	}

	service := &coordinator.Service{
		Params: params,
		Curve:  curveParams,
		DB:     db,
		Collections: coordinator.Collections{
			Files:   cfg.FilesCollection,
			Servers: cfg.ServersCollection,
			Users:   cfg.UsersCollection,
			Params:  cfg.ParamsCollection,
		},
		PrivateKey:  priv,
		Signer:      &sm2sig.Signer{Curve: curveParams, UserID: params.ID},
		HTTPClient:  &http.Client{Timeout: cfg.NodeTimeout},
		NodeTimeout: cfg.NodeTimeout,
		Log:         log,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().Str("addr", addr).Str("system_id", params.ID).Msg("coordinator listening")
	return http.ListenAndServe(addr, coordinator.NewRouter(service))
}

func defaultCurve() *curve.Curve {
	c, err := curve.New(
		mustHexBig(defaultCurveHex.P), mustHexBig(defaultCurveHex.A), mustHexBig(defaultCurveHex.B),
		mustHexBig(defaultCurveHex.Gx), mustHexBig(defaultCurveHex.Gy), mustHexBig(defaultCurveHex.N),
	)
	if err != nil {
		panic("vaultctl: invalid default curve constants: " + err.Error())
	}
	return c
}

// loadOrInitSystemParameters loads the lone persisted system parameters
// document, or generates and persists a fresh curve/threshold
// configuration on first boot, binding the coordinator's own generated id
// as both the record id and the SM2 signer's identity string (core.py:
// sign_algorithms={'SM2': {'user_id': self.__config.id}}).
func loadOrInitSystemParameters(ctx context.Context, db store.KeyValueDB, cfg config.CoordinatorConfig, pub curve.Point) (model.SystemParameters, error) {
	var params model.SystemParameters
	err := db.FindOne(ctx, cfg.ParamsCollection, map[string]any{}, &params)
	if err == nil {
		return params, nil
	}
	if err != store.ErrNotFound {
		return model.SystemParameters{}, err
	}

	id, err := ids.NewServerID(func(string) (bool, error) { return false, nil })
	if err != nil {
		return model.SystemParameters{}, err
	}

	c := defaultCurve()
	params = model.SystemParameters{
		ID:            id,
		N:             cfg.NodeCount,
		T:             cfg.Threshold,
		P:             wire.NewInt(c.P),
		A:             wire.NewInt(c.A),
		B:             wire.NewInt(c.B),
		Gx:            wire.NewInt(c.G.X()),
		Gy:            wire.NewInt(c.G.Y()),
		Order:         wire.NewInt(c.N),
		HashAlgorithm: "SHA256",
		SM2PublicKey:  model.FromPoint(pub),
	}
	if err := db.Insert(ctx, cfg.ParamsCollection, params); err != nil {
		return model.SystemParameters{}, err
	}
	return params, nil
}
