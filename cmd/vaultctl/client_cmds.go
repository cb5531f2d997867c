package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dstbp/vaultshard/internal/config"
	"github.com/dstbp/vaultshard/internal/keyfile"
	"github.com/dstbp/vaultshard/internal/logging"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/protocols/client"
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <password>",
	Short: "Create a new user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cl, err := newClient(cmd.Flags())
		if err != nil {
			return err
		}
		userID, err := cl.Register(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(userID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Authenticate and print the resolved user id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cl, err := newClient(cmd.Flags())
		if err != nil {
			return err
		}
		userID, err := cl.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(userID)
		return nil
	},
}

var keypairCmd = &cobra.Command{
	Use:   "keypair <user-id>",
	Short: "Generate (if needed) and publish this client's curve keypair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cl, err := newClient(cmd.Flags())
		if err != nil {
			return err
		}
		curveParams, err := mustClientCurve(cmd.Context(), cl)
		if err != nil {
			return err
		}
		_, pub, err := keyfile.EnsureKeypair(curveParams, cfg.PrivateKeyPath, cfg.PublicKeyPath)
		if err != nil {
			return fmt.Errorf("vaultctl: load or generate client keypair: %w", err)
		}
		cl.PublicKey = pub
		return cl.PublishPublicKey(cmd.Context(), args[0])
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file-path> <upload-user>",
	Short: "Encrypt and upload a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cl, err := newClient(cmd.Flags())
		if err != nil {
			return err
		}
		result, err := cl.Upload(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("file_uuid=%s key=%s\n", result.FileID, result.Key)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <file-id> <download-user> <dest-dir>",
	Short: "Reconstruct and decrypt a previously uploaded file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cl, err := newClient(cmd.Flags())
		if err != nil {
			return err
		}
		curveParams, err := mustClientCurve(cmd.Context(), cl)
		if err != nil {
			return err
		}
		priv, pub, err := keyfile.EnsureKeypair(curveParams, cfg.PrivateKeyPath, cfg.PublicKeyPath)
		if err != nil {
			return fmt.Errorf("vaultctl: load or generate client keypair: %w", err)
		}
		cl.PrivateKey, cl.PublicKey = priv, pub

		path, err := cl.Download(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd, keypairCmd, uploadCmd, downloadCmd} {
		f := cmd.Flags()
		f.String("coordinator-addr", "", "Coordinator base URL")
		f.String("private-key-path", "", "Path to this client's private key PEM")
		f.String("public-key-path", "", "Path to this client's public key PEM")
		f.Duration("request-timeout", 0, "HTTP request timeout")
	}
}

func newClient(flags *pflag.FlagSet) (config.ClientConfig, *client.Client, error) {
	cfg, err := config.LoadClient(flags, configFile)
	if err != nil {
		return config.ClientConfig{}, nil, err
	}
	cl := &client.Client{
		CoordinatorAddr: cfg.CoordinatorAddr,
		HTTPClient:      &http.Client{Timeout: cfg.RequestTimeout},
		Log:             logging.New("client", nil, cfg.Debug),
	}
	return cfg, cl, nil
}

func mustClientCurve(ctx context.Context, cl *client.Client) (*curve.Curve, error) {
	params, err := cl.SystemParameters(ctx)
	if err != nil {
		return nil, err
	}
	return params.Curve()
}
