package protocol

import (
	"bytes"
	"fmt"
	"time"
)

// Config parameterizes the framing protocol. Both peers must agree on every field.
type Config struct {
	BlockSize         int
	MsgSize           int
	StartMarker       []byte
	EndMarker         []byte
	InterPacketDelay  time.Duration
	InactivityTimeout time.Duration
}

// DefaultConfig matches the deployed firmware: 32-byte blocks, 64-byte messages.
func DefaultConfig() Config {
	return Config{
		BlockSize:         BlockSize,
		MsgSize:           MsgSize,
		StartMarker:       append([]byte(nil), DefaultStartMarker...),
		EndMarker:         append([]byte(nil), DefaultEndMarker...),
		InterPacketDelay:  InterPacketDelay,
		InactivityTimeout: InactivityTimeout,
	}
}

// Blocks returns the number of data blocks in one message.
func (c Config) Blocks() int {
	if c.BlockSize <= 0 {
		return 0
	}
	return c.MsgSize / c.BlockSize
}

// Validate checks the invariants that are not re-checked per message.
func (c Config) Validate() error {
	if c.BlockSize <= 0 {
		return WrapError(KindInvalidConfig, "invalid link config", fmt.Errorf("block size %d", c.BlockSize))
	}
	if c.MsgSize <= 0 || c.MsgSize%c.BlockSize != 0 {
		return WrapError(KindInvalidConfig, "invalid link config",
			fmt.Errorf("message size %d is not a positive multiple of block size %d", c.MsgSize, c.BlockSize))
	}
	if len(c.StartMarker) == 0 || len(c.StartMarker) > c.BlockSize {
		return WrapError(KindInvalidConfig, "invalid link config",
			fmt.Errorf("start marker length %d must be within 1..%d", len(c.StartMarker), c.BlockSize))
	}
	if len(c.EndMarker) == 0 || len(c.EndMarker) > c.BlockSize {
		return WrapError(KindInvalidConfig, "invalid link config",
			fmt.Errorf("end marker length %d must be within 1..%d", len(c.EndMarker), c.BlockSize))
	}
	if bytes.Equal(c.MarkerBlock(c.StartMarker), c.MarkerBlock(c.EndMarker)) {
		return WrapError(KindInvalidConfig, "invalid link config", fmt.Errorf("start and end markers are identical"))
	}
	if c.InterPacketDelay < 0 || c.InactivityTimeout <= 0 {
		return WrapError(KindInvalidConfig, "invalid link config",
			fmt.Errorf("delay %s / timeout %s", c.InterPacketDelay, c.InactivityTimeout))
	}
	return nil
}

// CheckTransform rejects a block cipher whose block size does not divide MsgSize.
func (c Config) CheckTransform(t Transform) error {
	b, ok := t.(BlockAligned)
	if !ok || b.BlockSize() <= 0 || c.MsgSize%b.BlockSize() == 0 {
		return nil
	}
	return WrapError(KindInvalidConfig, "invalid link config",
		fmt.Errorf("message size %d is not a multiple of the cipher block size %d", c.MsgSize, b.BlockSize()))
}

// MarkerBlock pads a marker with NULs to one block.
func (c Config) MarkerBlock(marker []byte) []byte {
	block := make([]byte, c.BlockSize)
	copy(block, marker)
	return block
}

// PingBlock returns the block written by the link check helper.
func (c Config) PingBlock() []byte {
	return c.MarkerBlock([]byte(pingText))
}
