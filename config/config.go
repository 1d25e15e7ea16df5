package config

import (
	"crypto/aes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/store"
)

// Config holds the nrflink configuration.
type Config struct {
	Link      LinkConfig      `yaml:"link"`
	Crypto    CryptoConfig    `yaml:"crypto"`
	Codec     string          `yaml:"codec"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
}

// LinkConfig mirrors protocol.Config. Markers are written without their
// terminating NUL, which is added on conversion.
type LinkConfig struct {
	BlockSize         int           `yaml:"block_size"`
	MsgSize           int           `yaml:"msg_size"`
	StartMarker       string        `yaml:"start_marker"`
	EndMarker         string        `yaml:"end_marker"`
	InterPacketDelay  time.Duration `yaml:"inter_packet_delay"`
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
	EarlyStop         bool          `yaml:"early_stop"`
}

type CryptoConfig struct {
	Enabled    bool   `yaml:"enabled"`
	KeyHex     string `yaml:"key_hex"`
	Passphrase string `yaml:"passphrase"`
	Salt       string `yaml:"salt"`
}

type TransportConfig struct {
	Kind       string        `yaml:"kind"` // stub | netlink
	Listen     string        `yaml:"listen"`
	Dial       string        `yaml:"dial"`
	Proxy      string        `yaml:"proxy"`
	AckTimeout time.Duration `yaml:"ack_timeout"`
}

type StoreConfig struct {
	Kind      string   `yaml:"kind"` // memory | postgres | etcd
	DSN       string   `yaml:"dsn"`
	Endpoints []string `yaml:"endpoints"`
}

// DefaultPath returns the default config file path: ~/.nrflink/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".nrflink", "config.yaml")
	}
	return filepath.Join(home, ".nrflink", "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	def := proto.DefaultConfig()
	return &Config{
		Link: LinkConfig{
			BlockSize:         def.BlockSize,
			MsgSize:           def.MsgSize,
			StartMarker:       "#~~~START~~~#",
			EndMarker:         "#~~~END~~~#",
			InterPacketDelay:  def.InterPacketDelay,
			InactivityTimeout: def.InactivityTimeout,
		},
		Codec:     "json",
		Transport: TransportConfig{Kind: "stub", AckTimeout: 100 * time.Millisecond},
		Store:     StoreConfig{Kind: "memory"},
	}
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns Default() with no error.
func Load(path string) (*Config, error) {
	cfg := Default()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		fmt.Fprintf(os.Stderr,
			"warning: config file %s has permissions %04o, expected 0600. "+
				"Key material may be exposed to other users.\n",
			path, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Link.Protocol().Validate(); err != nil {
		return err
	}
	if _, ok := proto.CodecByName(c.Codec); !ok {
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	switch c.Transport.Kind {
	case "", "stub":
	case "netlink":
		if (c.Transport.Listen == "") == (c.Transport.Dial == "") {
			return errors.New("netlink transport needs exactly one of listen or dial")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport.Kind)
	}
	if c.Crypto.Enabled && c.Crypto.KeyHex == "" && c.Crypto.Passphrase == "" {
		return errors.New("crypto enabled without key_hex or passphrase")
	}
	if c.Crypto.Enabled && c.Link.MsgSize%aes.BlockSize != 0 {
		return fmt.Errorf("crypto needs msg_size to be a multiple of %d", aes.BlockSize)
	}
	return nil
}

// Protocol converts the link section to a protocol.Config.
func (l LinkConfig) Protocol() proto.Config {
	return proto.Config{
		BlockSize:         l.BlockSize,
		MsgSize:           l.MsgSize,
		StartMarker:       append([]byte(l.StartMarker), 0),
		EndMarker:         append([]byte(l.EndMarker), 0),
		InterPacketDelay:  l.InterPacketDelay,
		InactivityTimeout: l.InactivityTimeout,
	}
}

// Key returns the raw AES key from key_hex, or derives one from the passphrase.
func (c CryptoConfig) Key() ([]byte, error) {
	if c.KeyHex != "" {
		key, err := hex.DecodeString(c.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("key_hex: %w", err)
		}
		return key, nil
	}
	return proto.DeriveKey([]byte(c.Passphrase), []byte(c.Salt))
}

// Transform returns the configured transform and a function releasing its key.
func (c CryptoConfig) Transform() (proto.Transform, func(), error) {
	if !c.Enabled {
		return proto.Identity{}, func() {}, nil
	}
	key, err := c.Key()
	if err != nil {
		return nil, nil, err
	}
	t, err := proto.NewAESTransform(key)
	if err != nil {
		return nil, nil, err
	}
	return t, t.Close, nil
}

// MessageCodec returns the configured codec.
func (c *Config) MessageCodec() proto.Codec {
	codec, _ := proto.CodecByName(c.Codec)
	return codec
}

// StoreOptions converts the store section for store.Open.
func (s StoreConfig) Options() store.Options {
	return store.Options{Kind: s.Kind, DSN: s.DSN, Endpoints: s.Endpoints}
}
