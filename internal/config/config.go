// Package config defines the layered (flags > env > file > defaults)
// configuration structs for each of the three roles, bound through
// viper and cobra per the CLI's persistent flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CoordinatorConfig configures the coordinator daemon.
type CoordinatorConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	MongoURI          string        `mapstructure:"mongo_uri"`
	DatabaseName      string        `mapstructure:"database_name"`
	FilesCollection   string        `mapstructure:"files_collection"`
	ServersCollection string        `mapstructure:"servers_collection"`
	UsersCollection   string        `mapstructure:"users_collection"`
	ParamsCollection  string        `mapstructure:"params_collection"`
	StorageDir        string        `mapstructure:"storage_dir"`
	PrivateKeyPath    string        `mapstructure:"private_key_path"`
	PublicKeyPath     string        `mapstructure:"public_key_path"`
	TLSCertPath       string        `mapstructure:"tls_cert_path"`
	TLSKeyPath        string        `mapstructure:"tls_key_path"`
	NodeTimeout       time.Duration `mapstructure:"node_timeout"`
	Threshold         int           `mapstructure:"threshold"`
	NodeCount         int           `mapstructure:"node_count"`
	Debug             bool          `mapstructure:"debug"`
}

// NodeConfig configures a storage node daemon.
type NodeConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	MongoURI          string `mapstructure:"mongo_uri"`
	DatabaseName      string `mapstructure:"database_name"`
	SharesCollection  string `mapstructure:"shares_collection"`
	StorageDir        string `mapstructure:"storage_dir"`
	PrivateKeyPath    string `mapstructure:"private_key_path"`
	PublicKeyPath     string `mapstructure:"public_key_path"`
	TLSCertPath       string `mapstructure:"tls_cert_path"`
	TLSKeyPath        string `mapstructure:"tls_key_path"`
	CoordinatorAddr   string `mapstructure:"coordinator_addr"`
	Debug             bool   `mapstructure:"debug"`
}

// ClientConfig configures client-side CLI operations.
type ClientConfig struct {
	CoordinatorAddr string        `mapstructure:"coordinator_addr"`
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Debug           bool          `mapstructure:"debug"`
}

func newViper(envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadCoordinator builds a CoordinatorConfig from flags > env > file > defaults.
func LoadCoordinator(flags *pflag.FlagSet, configFile string) (CoordinatorConfig, error) {
	v := newViper("VAULTSHARD")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("database_name", "vaultshard")
	v.SetDefault("files_collection", "files")
	v.SetDefault("servers_collection", "servers")
	v.SetDefault("users_collection", "users")
	v.SetDefault("params_collection", "system_params")
	v.SetDefault("storage_dir", "./data/coordinator")
	v.SetDefault("private_key_path", "./data/coordinator/private.pem")
	v.SetDefault("public_key_path", "./data/coordinator/public.pem")
	v.SetDefault("node_timeout", 30*time.Second)
	v.SetDefault("threshold", 3)
	v.SetDefault("node_count", 5)

	if err := bindAndRead(v, flags, configFile); err != nil {
		return CoordinatorConfig{}, err
	}
	var cfg CoordinatorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CoordinatorConfig{}, fmt.Errorf("config: decode coordinator config: %w", err)
	}
	return cfg, nil
}

// LoadNode builds a NodeConfig from flags > env > file > defaults.
func LoadNode(flags *pflag.FlagSet, configFile string) (NodeConfig, error) {
	v := newViper("VAULTSHARD_NODE")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 9090)
	v.SetDefault("database_name", "vaultshard_node")
	v.SetDefault("shares_collection", "enc_shares")
	v.SetDefault("storage_dir", "./data/node")
	v.SetDefault("private_key_path", "./data/node/private.pem")
	v.SetDefault("public_key_path", "./data/node/public.pem")

	if err := bindAndRead(v, flags, configFile); err != nil {
		return NodeConfig{}, err
	}
	var cfg NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config: decode node config: %w", err)
	}
	return cfg, nil
}

// LoadClient builds a ClientConfig from flags > env > file > defaults.
func LoadClient(flags *pflag.FlagSet, configFile string) (ClientConfig, error) {
	v := newViper("VAULTSHARD_CLIENT")
	v.SetDefault("coordinator_addr", "http://localhost:8080")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("private_key_path", "./data/client/private.pem")
	v.SetDefault("public_key_path", "./data/client/public.pem")

	if err := bindAndRead(v, flags, configFile); err != nil {
		return ClientConfig{}, err
	}
	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config: decode client config: %w", err)
	}
	return cfg, nil
}

func bindAndRead(v *viper.Viper, flags *pflag.FlagSet, configFile string) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("config: bind flags: %w", err)
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("config: read config file: %w", err)
			}
		}
	}
	return nil
}
