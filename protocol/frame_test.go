package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func smallConfig() Config {
	return Config{
		BlockSize:         4,
		MsgSize:           8,
		StartMarker:       []byte("ST"),
		EndMarker:         []byte("EN"),
		InterPacketDelay:  time.Millisecond,
		InactivityTimeout: time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "message not a multiple of block", mutate: func(c *Config) { c.MsgSize = 70 }, wantErr: true},
		{name: "zero block size", mutate: func(c *Config) { c.BlockSize = 0 }, wantErr: true},
		{name: "start marker too long", mutate: func(c *Config) { c.StartMarker = bytes.Repeat([]byte{'#'}, BlockSize+1) }, wantErr: true},
		{name: "empty end marker", mutate: func(c *Config) { c.EndMarker = nil }, wantErr: true},
		{name: "identical markers", mutate: func(c *Config) { c.EndMarker = c.StartMarker }, wantErr: true},
		{name: "markers equal after padding", mutate: func(c *Config) {
			c.StartMarker = []byte("AB")
			c.EndMarker = []byte("AB\x00")
		}, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.InactivityTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want kind %v", err, KindInvalidConfig)
			}
		})
	}
}

func TestDefaultMarkers(t *testing.T) {
	if len(DefaultStartMarker) != 14 {
		t.Errorf("start marker = %d bytes, want 14", len(DefaultStartMarker))
	}
	if len(DefaultEndMarker) != 12 {
		t.Errorf("end marker = %d bytes, want 12", len(DefaultEndMarker))
	}
	if DefaultConfig().Blocks() != 2 {
		t.Errorf("Blocks() = %d, want 2", DefaultConfig().Blocks())
	}
}

func TestFramerClassify(t *testing.T) {
	f, err := NewFramer(smallConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		block []byte
		want  BlockKind
	}{
		{name: "start", block: []byte("ST\x00\x00"), want: BlockStart},
		{name: "end", block: []byte("EN\x00\x00"), want: BlockEnd},
		{name: "data", block: []byte("ABCD"), want: BlockData},
		{name: "marker prefix with trailing data", block: []byte("ST\x00X"), want: BlockData},
		{name: "short block", block: []byte("ST"), want: BlockData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Classify(tt.block); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.block, got, tt.want)
			}
		})
	}
}

func TestFramerPadAndSplit(t *testing.T) {
	f, err := NewFramer(smallConfig())
	if err != nil {
		t.Fatal(err)
	}

	buf, err := f.Pad([]byte("ABCDE"))
	if err != nil {
		t.Fatalf("Pad() error = %v", err)
	}
	if !bytes.Equal(buf, []byte("ABCDE\x00\x00\x00")) {
		t.Errorf("Pad() = %q", buf)
	}

	blocks, err := f.Split(buf, false)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(blocks) != 2 || string(blocks[0]) != "ABCD" || string(blocks[1]) != "E\x00\x00\x00" {
		t.Errorf("Split() = %q", blocks)
	}

	if _, err := f.Pad([]byte("ABCDEFGHI")); !errors.Is(err, ErrEncodingOverflow) {
		t.Errorf("Pad(9 bytes) error = %v, want %v", err, ErrEncodingOverflow)
	}
	if _, err := f.Split([]byte("ABC"), false); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Split(short) error = %v, want %v", err, ErrInvalidPayload)
	}
}

func TestFramerSplitTrimZero(t *testing.T) {
	f, err := NewFramer(smallConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		buf  []byte
		want int
	}{
		{name: "full", buf: []byte("ABCDEFGH"), want: 2},
		{name: "second block zero", buf: []byte("ABC\x00\x00\x00\x00\x00"), want: 1},
		{name: "zero inside payload kept", buf: []byte("\x00\x00\x00\x00EFGH"), want: 2},
		{name: "all zero", buf: make([]byte, 8), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := f.Split(tt.buf, true)
			if err != nil {
				t.Fatal(err)
			}
			if len(blocks) != tt.want {
				t.Errorf("Split(trim) = %d blocks, want %d", len(blocks), tt.want)
			}
		})
	}
}

func TestFramerCheckReserved(t *testing.T) {
	f, err := NewFramer(smallConfig())
	if err != nil {
		t.Fatal(err)
	}

	blocks, _ := f.Split([]byte("ABCDEN\x00X"), false)
	if err := f.CheckReserved(blocks); err != nil {
		t.Errorf("CheckReserved() error = %v, want nil", err)
	}

	for _, payload := range []string{"ABCDST\x00\x00", "EN\x00\x00EFGH"} {
		blocks, _ = f.Split([]byte(payload), false)
		err = f.CheckReserved(blocks)
		if !IsKind(err, KindReservedSequence) {
			t.Errorf("CheckReserved(%q) error = %v, want kind %v", payload, err, KindReservedSequence)
		}
	}
}

func TestReassembly(t *testing.T) {
	r := NewReassembly(smallConfig())

	if err := r.Append([]byte("AB\x00D")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
	if got := r.Bytes(); !bytes.Equal(got, []byte("AB\x00D\x00\x00\x00\x00")) {
		t.Errorf("Bytes() = %q, NUL inside a block must not truncate it", got)
	}

	if err := r.Append([]byte("EFGH")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := r.Append([]byte("IJKL")); !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("Append() past capacity error = %v, want %v", err, ErrBufferOverflow)
	}
	if err := r.Append([]byte("XY")); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Append(short) error = %v, want %v", err, ErrInvalidPayload)
	}

	r.Reset()
	if r.Len() != 0 || !bytes.Equal(r.Bytes(), make([]byte, 8)) {
		t.Errorf("Reset() left %q at cursor %d", r.Bytes(), r.Len())
	}
}
