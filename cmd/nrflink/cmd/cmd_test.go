package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	proto "github.com/ystepanoff/nrflink/protocol"
)

const testConfig = `
link:
  inter_packet_delay: 1ms
  inactivity_timeout: 500ms
transport:
  kind: stub
store:
  kind: memory
`

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	root := RootCmd()
	resetFlags(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", path}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "nrflink version "+nrflinkVersion) || !strings.Contains(out, "32-byte blocks") {
		t.Errorf("output = %q", out)
	}
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "keygen")
	if err != nil {
		t.Fatal(err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(out))
	if err != nil || len(key) != proto.KeySize {
		t.Errorf("keygen output %q is not a %d-byte hex key", out, proto.KeySize)
	}

	a, _ := execute(t, "keygen", "--passphrase", "secret", "--salt", "s")
	b, _ := execute(t, "keygen", "--passphrase", "secret", "--salt", "s")
	if a != b || a == out {
		t.Errorf("derived keys %q / %q", a, b)
	}
}

func TestSend(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"sensor flags", []string{"send", "--temperature", "21.5", "--pir", "1"}, nil},
		{"json", []string{"send", `{"t":"status","p":{}}`}, nil},
		{"cbor", []string{"--codec", "cbor", "send", `{"k":1}`}, nil},
		{"raw", []string{"send", "--raw", "hello"}, nil},
		{"raw too long", []string{"send", "--raw", strings.Repeat("x", proto.MsgSize+1)}, proto.ErrEncodingOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !strings.Contains(out, "message sent") {
				t.Errorf("output = %q", out)
			}
		})
	}
}

func TestSendNeedsContent(t *testing.T) {
	if _, err := execute(t, "send"); err == nil {
		t.Error("send without message or flags succeeded")
	}
	if _, err := execute(t, "send", "{not json"); err == nil {
		t.Error("send with invalid JSON succeeded")
	}
}

func TestPing(t *testing.T) {
	out, err := execute(t, "ping", "--count", "2", "--interval", "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2/2 acknowledged") {
		t.Errorf("output = %q", out)
	}
}

func TestListenSimulated(t *testing.T) {
	out, err := execute(t, "listen", "--simulate", "--interval", "10ms", "--count", "2", "--for", "10s")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "{\"t\":\"sensors\""); n != 2 {
		t.Errorf("got %d report lines, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "\r\n") {
		t.Error("report lines are not CRLF-terminated")
	}
	if !strings.Contains(out, "received: 2") {
		t.Errorf("stats missing from output:\n%s", out)
	}
}

func TestListenSimulatedTotalLoss(t *testing.T) {
	out, err := execute(t, "listen", "--simulate", "--interval", "10ms", "--loss", "1", "--for", "300ms")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "{\"t\"") {
		t.Errorf("report received with --loss 1:\n%s", out)
	}
	if !strings.Contains(out, "received: 0") {
		t.Errorf("stats missing from output:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	out, err := execute(t, "history", "--avg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no readings") {
		t.Errorf("output = %q", out)
	}
}

func TestInvalidOverride(t *testing.T) {
	if _, err := execute(t, "--codec", "xml", "version"); err == nil {
		t.Error("unknown codec accepted")
	}
}
