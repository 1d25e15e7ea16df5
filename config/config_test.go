package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Codec != "json" || cfg.Transport.Kind != "stub" || cfg.Store.Kind != "memory" {
		t.Errorf("Load() = %+v", cfg)
	}

	pc := cfg.Link.Protocol()
	def := proto.DefaultConfig()
	if !bytes.Equal(pc.StartMarker, def.StartMarker) || !bytes.Equal(pc.EndMarker, def.EndMarker) {
		t.Errorf("markers = %q / %q, want %q / %q", pc.StartMarker, pc.EndMarker, def.StartMarker, def.EndMarker)
	}
	if pc.BlockSize != def.BlockSize || pc.MsgSize != def.MsgSize || pc.InactivityTimeout != def.InactivityTimeout {
		t.Errorf("Protocol() = %+v", pc)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
link:
  inter_packet_delay: 10ms
  early_stop: true
codec: cbor
crypto:
  enabled: true
  passphrase: hunter2
  salt: node-7
transport:
  kind: netlink
  dial: 10.0.0.2:7000
  proxy: socks5://127.0.0.1:9050
store:
  kind: etcd
  endpoints: [127.0.0.1:2379]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Link.InterPacketDelay != 10*time.Millisecond || !cfg.Link.EarlyStop {
		t.Errorf("link = %+v", cfg.Link)
	}
	if cfg.Link.BlockSize != proto.BlockSize {
		t.Errorf("unset block_size = %d, want default", cfg.Link.BlockSize)
	}
	if _, ok := cfg.MessageCodec().(proto.CBORCodec); !ok {
		t.Errorf("MessageCodec() = %T", cfg.MessageCodec())
	}
	if cfg.Transport.Dial != "10.0.0.2:7000" || cfg.Transport.Proxy == "" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if opts := cfg.Store.Options(); opts.Kind != "etcd" || len(opts.Endpoints) != 1 {
		t.Errorf("store options = %+v", opts)
	}

	tr, release, err := cfg.Crypto.Transform()
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	defer release()
	if _, ok := tr.(*proto.AESTransform); !ok {
		t.Errorf("Transform() = %T, want *AESTransform", tr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"yaml", "link: [oops"},
		{"codec", "codec: xml"},
		{"transport", "transport: {kind: serial}"},
		{"netlink both", "transport: {kind: netlink, listen: ':1', dial: 'x:1'}"},
		{"netlink neither", "transport: {kind: netlink}"},
		{"link", "link: {msg_size: 33}"},
		{"crypto", "crypto: {enabled: true}"},
		{"crypto block size", "link: {block_size: 20, msg_size: 40}\ncrypto: {enabled: true, passphrase: p}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() error = nil")
			}
		})
	}
}

func TestCryptoKey(t *testing.T) {
	key, err := CryptoConfig{KeyHex: "000102030405060708090a0b0c0d0e0f"}.Key()
	if err != nil || len(key) != 16 || key[15] != 0x0f {
		t.Errorf("Key(hex) = %x, %v", key, err)
	}
	if _, err := (CryptoConfig{KeyHex: "zz"}).Key(); err == nil {
		t.Error("Key(bad hex) error = nil")
	}

	a, err := CryptoConfig{Passphrase: "p", Salt: "s"}.Key()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := CryptoConfig{Passphrase: "p", Salt: "s"}.Key()
	if !bytes.Equal(a, b) {
		t.Error("derived keys differ for the same passphrase")
	}

	tr, release, err := CryptoConfig{}.Transform()
	if err != nil {
		t.Fatal(err)
	}
	release()
	if _, ok := tr.(proto.Identity); !ok {
		t.Errorf("Transform(disabled) = %T", tr)
	}
}
