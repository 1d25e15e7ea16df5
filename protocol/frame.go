package protocol

import (
	"bytes"
	"fmt"
)

// BlockKind classifies one received block.
type BlockKind uint8

const (
	BlockData BlockKind = iota
	BlockStart
	BlockEnd
)

// Framer cuts message buffers into wire blocks and classifies received blocks.
// Marker blocks are built once; a Framer is immutable after NewFramer.
type Framer struct {
	cfg   Config
	start []byte
	end   []byte
}

func NewFramer(cfg Config) (*Framer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Framer{
		cfg:   cfg,
		start: cfg.MarkerBlock(cfg.StartMarker),
		end:   cfg.MarkerBlock(cfg.EndMarker),
	}, nil
}

func (f *Framer) Config() Config { return f.cfg }

// StartBlock returns a copy of the padded start marker.
func (f *Framer) StartBlock() []byte { return append([]byte(nil), f.start...) }

// EndBlock returns a copy of the padded end marker.
func (f *Framer) EndBlock() []byte { return append([]byte(nil), f.end...) }

// Classify compares a block against both markers. A block must be exactly BlockSize bytes
// to match; anything else is data (and rejected later by Reassembly.Append).
func (f *Framer) Classify(block []byte) BlockKind {
	switch {
	case bytes.Equal(block, f.start):
		return BlockStart
	case bytes.Equal(block, f.end):
		return BlockEnd
	default:
		return BlockData
	}
}

// Pad copies payload into a fresh MsgSize buffer, NUL-padding the tail.
func (f *Framer) Pad(payload []byte) ([]byte, error) {
	if len(payload) > f.cfg.MsgSize {
		return nil, WrapError(KindEncodingOverflow, "message does not fit into buffer",
			fmt.Errorf("%d bytes > %d", len(payload), f.cfg.MsgSize))
	}
	buf := make([]byte, f.cfg.MsgSize)
	copy(buf, payload)
	return buf, nil
}

// Split cuts a MsgSize buffer into consecutive BlockSize slices sharing buf's memory.
// With trimZero set, trailing all-zero blocks are left out.
func (f *Framer) Split(buf []byte, trimZero bool) ([][]byte, error) {
	if len(buf) != f.cfg.MsgSize {
		return nil, fmt.Errorf("%w: buffer is %d bytes, want %d", ErrInvalidPayload, len(buf), f.cfg.MsgSize)
	}
	n := f.cfg.Blocks()
	blocks := make([][]byte, 0, n)
	for off := 0; off < len(buf); off += f.cfg.BlockSize {
		blocks = append(blocks, buf[off:off+f.cfg.BlockSize])
	}
	if trimZero {
		for len(blocks) > 0 && isZero(blocks[len(blocks)-1]) {
			blocks = blocks[:len(blocks)-1]
		}
	}
	return blocks, nil
}

// CheckReserved fails if any data block would be mistaken for a marker by the peer.
func (f *Framer) CheckReserved(blocks [][]byte) error {
	for i, b := range blocks {
		if k := f.Classify(b); k != BlockData {
			return WrapError(KindReservedSequence, "payload block collides with a marker",
				fmt.Errorf("block %d", i))
		}
	}
	return nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Reassembly is the receiver working buffer: a fixed MsgSize buffer and a block-aligned cursor.
type Reassembly struct {
	cfg  Config
	buf  []byte
	part int
}

func NewReassembly(cfg Config) *Reassembly {
	return &Reassembly{cfg: cfg, buf: make([]byte, cfg.MsgSize)}
}

// Reset zeroes the buffer and rewinds the cursor.
func (r *Reassembly) Reset() {
	clear(r.buf)
	r.part = 0
}

// Len is the number of bytes received so far.
func (r *Reassembly) Len() int { return r.part }

// Append copies one full block at the cursor. NUL bytes inside the block are copied as data.
func (r *Reassembly) Append(block []byte) error {
	if len(block) != r.cfg.BlockSize {
		return fmt.Errorf("%w: block is %d bytes, want %d", ErrInvalidPayload, len(block), r.cfg.BlockSize)
	}
	if r.part+len(block) > len(r.buf) {
		return WrapError(KindBufferOverflow, "reassembly buffer overflow",
			fmt.Errorf("cursor %d + %d > %d", r.part, len(block), len(r.buf)))
	}
	copy(r.buf[r.part:], block)
	r.part += len(block)
	return nil
}

// Bytes returns a copy of the full MsgSize buffer, zero-filled past the cursor.
func (r *Reassembly) Bytes() []byte {
	return append([]byte(nil), r.buf...)
}
