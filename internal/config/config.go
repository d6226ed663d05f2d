package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hashring/internal/ring"
)

// Node is a ring member.
type Node struct {
	ID   string `mapstructure:"id"`
	Addr string `mapstructure:"addr"`
}

// AppendHash places the node by ID only, so changing its address does not
// move it on the ring.
func (n Node) AppendHash(b []byte) []byte {
	return append(b, n.ID...)
}

func (n Node) String() string {
	return n.ID + "=" + n.Addr
}

// Config holds the ring configuration.
type Config struct {
	Nodes       []Node `mapstructure:"nodes"`
	Peers       string `mapstructure:"peers"`
	LogLevel    string `mapstructure:"log_level"`
	MetricsFile string `mapstructure:"metrics_file"`
	SampleKeys  int    `mapstructure:"sample_keys"`
}

// ParseNodes parses a comma-separated list of nodes in the format:
// "id1=addr1,id2=addr2,id3=addr3"
func ParseNodes(s string) ([]Node, error) {
	if s == "" {
		return []Node{}, nil
	}

	parts := strings.Split(s, ",")
	nodes := make([]Node, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, eris.Errorf("invalid node format: %s (expected id=addr)", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])

		if id == "" || addr == "" {
			return nil, eris.Errorf("node ID and address cannot be empty: %s", part)
		}

		nodes = append(nodes, Node{
			ID:   id,
			Addr: addr,
		})
	}

	return nodes, nil
}

// BindFlags registers the CLI flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("config", "", "path to a YAML config file")
	fs.String("peers", "", "ring nodes as id1=addr1,id2=addr2")
	fs.String("log-level", "info", "log level")
	fs.String("metrics-file", "", "write ring metrics in text exposition format to this file")
	fs.Int("sample-keys", 0, "report ownership of this many sample keys")

	for key, flag := range map[string]string{
		"config":       "config",
		"peers":        "peers",
		"log_level":    "log-level",
		"metrics_file": "metrics-file",
		"sample_keys":  "sample-keys",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return eris.Wrapf(err, "bind flag %s", flag)
		}
	}
	return nil
}

// Load reads the configuration from defaults, the optional config file,
// HASHRING_* environment variables and bound flags.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("log_level", "info")
	v.SetDefault("sample_keys", 0)
	v.SetEnvPrefix("hashring")
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, eris.Wrapf(err, "read config file %s", path)
		}
		logrus.Debugf("loaded config from %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "decode config")
	}

	// Unmarshal skips env-only keys, so read these through Get
	cfg.Peers = v.GetString("peers")
	cfg.LogLevel = v.GetString("log_level")
	cfg.MetricsFile = v.GetString("metrics_file")
	cfg.SampleKeys = v.GetInt("sample_keys")

	if cfg.Peers != "" {
		nodes, err := ParseNodes(cfg.Peers)
		if err != nil {
			return Config{}, eris.Wrap(err, "parse peers")
		}
		cfg.Nodes = nodes
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration can build a ring.
func (c Config) Validate() error {
	if len(c.Nodes) == 0 {
		return eris.New("no ring nodes configured")
	}
	if c.SampleKeys < 0 {
		return eris.Errorf("sample keys must not be negative: %d", c.SampleKeys)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return eris.Wrapf(err, "invalid log level %q", c.LogLevel)
		}
	}
	return nil
}

// BuildRing places every configured node on a new ring. Nodes whose position
// is already taken are logged and skipped.
func (c Config) BuildRing() (*ring.Ring[Node], error) {
	r := ring.New[Node]()
	for _, node := range c.Nodes {
		err := r.AddNode(node)
		if errors.Is(err, ring.ErrNodeAlreadyPresent) {
			logrus.Warnf("skipping node %s: position already taken", node)
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "add node %s", node)
		}
	}
	return r, nil
}
