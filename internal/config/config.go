package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/keel-hq/etcdtree/constants"
	"github.com/keel-hq/etcdtree/types"
)

type Config struct {
	Kubernetes KubernetesConfig `toml:"kubernetes"`
	Etcd       EtcdConfig       `toml:"etcd"`
	Dump       DumpConfig       `toml:"dump"`
	Codec      string           `toml:"codec"`
	// MetricsFile - when set, run counters are written there in textfile format
	MetricsFile string `toml:"metrics_file"`
}

type KubernetesConfig struct {
	InCluster  bool   `toml:"in_cluster"`
	Kubeconfig string `toml:"kubeconfig"`
	Master     string `toml:"master"`
}

type EtcdConfig struct {
	Namespace string `toml:"namespace"`
	Selector  string `toml:"selector"`
	Container string `toml:"container"`
	Endpoint  string `toml:"endpoint"`
	CACert    string `toml:"cacert"`
	Cert      string `toml:"cert"`
	Key       string `toml:"key"`
}

type DumpConfig struct {
	Prefix    string `toml:"prefix"`
	Anchor    string `toml:"anchor"`
	OutputDir string `toml:"output_dir"`
}

// Defaults returns a Config matching a kubeadm cluster.
func Defaults() *Config {
	return &Config{
		Kubernetes: KubernetesConfig{
			Kubeconfig: "~/.kube/config",
		},
		Etcd: EtcdConfig{
			Namespace: constants.DefaultNamespace,
			Selector:  constants.DefaultEtcdSelector,
			Container: constants.DefaultEtcdContainer,
			Endpoint:  constants.DefaultEtcdEndpoint,
			CACert:    constants.DefaultEtcdCACert,
			Cert:      constants.DefaultEtcdCert,
			Key:       constants.DefaultEtcdKey,
		},
		Dump: DumpConfig{
			Prefix:    constants.DefaultPrefix,
			Anchor:    constants.DefaultAnchor,
			OutputDir: constants.DefaultOutputDir,
		},
		Codec: constants.DefaultCodecBinary,
	}
}

// Load reads a TOML config file on top of the defaults.
// If path is empty, only defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config: unknown keys %v", undecoded)
	}

	return cfg, nil
}

// Validate checks the fields the tool cannot work without.
func (c *Config) Validate() error {
	if c.Dump.Anchor == "" {
		return fmt.Errorf("anchor must not be empty")
	}
	if strings.Contains(c.Dump.Anchor, "/") {
		return fmt.Errorf("anchor %q must be a single key segment", c.Dump.Anchor)
	}
	if !strings.HasPrefix(c.Dump.Prefix, "/") {
		return fmt.Errorf("prefix %q must start with /", c.Dump.Prefix)
	}
	if c.Dump.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Etcd.Namespace == "" || c.Etcd.Selector == "" {
		return fmt.Errorf("etcd namespace and selector must be set")
	}
	if _, err := types.ParseCodecType(c.Codec); err != nil {
		return err
	}
	return nil
}

// CodecType - codec implementation selected by Codec
func (c *Config) CodecType() types.CodecType {
	t, _ := types.ParseCodecType(c.Codec)
	return t
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
