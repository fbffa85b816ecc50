// Package config loads the connectord daemon configuration from a YAML file
// and CONNECTORD_* environment variables, viper underneath.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/solkit/connectord/internal/cluster"
	"github.com/solkit/connectord/internal/remote"
)

// Storage backend names accepted by the daemon.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageBadger = "badger"
)

// Config is the daemon configuration.
type Config struct {
	// Listen is the address the remote signer serves on.
	Listen string `mapstructure:"listen"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`

	// DataDir holds persistent state; defaults to ~/.connectord.
	DataDir string `mapstructure:"data_dir"`

	// Storage selects the session store backend: memory, file, or badger.
	Storage string `mapstructure:"storage"`

	// Cluster is the ID of the cluster to start on.
	Cluster string `mapstructure:"cluster"`

	// Clusters replaces the built-in cluster table when non-empty.
	Clusters []cluster.Cluster `mapstructure:"clusters"`

	Signer SignerConfig `mapstructure:"signer"`
}

// SignerConfig configures the remote signer endpoint.
type SignerConfig struct {
	// Name and Icon are advertised in signer metadata.
	Name string `mapstructure:"name"`
	Icon string `mapstructure:"icon"`

	// Chains lists supported cluster IDs.
	Chains []string `mapstructure:"chains"`

	// AuthSecret is the bearer token. Prefer the CONNECTORD_SIGNER_AUTH_SECRET
	// environment variable over the config file.
	AuthSecret string `mapstructure:"auth_secret"`

	// RPCURL enables signAndSendTransaction.
	RPCURL string `mapstructure:"rpc_url"`

	Provider remote.ProviderConfig `mapstructure:"provider"`
}

// DefaultDataDir resolves ~/.connectord.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".connectord"), nil
}

// Load reads the config file at path, or the default search locations when
// path is empty. A missing file is not an error; environment variables and
// defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8547")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage", StorageFile)
	v.SetDefault("cluster", "solana:mainnet")
	v.SetDefault("signer.name", "Remote Signer")
	v.SetDefault("signer.provider.kind", "keypair")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dataDir, err := DefaultDataDir()
		if err == nil {
			v.AddConfigPath(dataDir)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("connectord")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// the secret must be bound explicitly so CONNECTORD_SIGNER_AUTH_SECRET
	// works without a config file.
	_ = v.BindEnv("signer.auth_secret")
	_ = v.BindEnv("signer.rpc_url")
	_ = v.BindEnv("data_dir")

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DataDir == "" {
		dataDir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dataDir
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StorageFile, StorageBadger:
	default:
		return fmt.Errorf("unknown storage backend %q: use %s, %s, or %s",
			c.Storage, StorageMemory, StorageFile, StorageBadger)
	}

	clusters := c.Clusters
	if len(clusters) == 0 {
		clusters = cluster.DefaultClusters()
	}
	if _, ok := cluster.Find(clusters, c.Cluster); !ok {
		return fmt.Errorf("cluster %q is not in the configured cluster table", c.Cluster)
	}
	return nil
}
