// Package nrflink provides a façade to access the message framing layer.
package nrflink

import (
	"github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

// The driver constructors are split into build-tag specific files:
// - constructors_nrf.go - for embedded platforms (//go:build tinygo || baremetal)
// - constructors_host.go - for development/testing (//go:build !tinygo && !baremetal)

type (
	Engine       = transport.Engine
	Option       = transport.Option
	PacketDriver = transport.PacketDriver
	Stats        = transport.Stats
	Config       = protocol.Config
	Error        = protocol.Error
	SensorReport = protocol.SensorReport
)

// Error values exposed in the public API
var (
	ErrEncodingOverflow  = protocol.ErrEncodingOverflow
	ErrEncodingFailure   = protocol.ErrEncodingFailure
	ErrDeliveryFailed    = protocol.ErrDeliveryFailed
	ErrNotAStartSequence = protocol.ErrNotAStartSequence
	ErrReceiveTimeout    = protocol.ErrReceiveTimeout
	ErrDecodingFailure   = protocol.ErrDecodingFailure
	ErrBufferOverflow    = protocol.ErrBufferOverflow
	ErrReservedSequence  = protocol.ErrReservedSequence
	ErrInvalidConfig     = protocol.ErrInvalidConfig
	ErrInvalidChannel    = protocol.ErrInvalidChannel
)

// Constants exposed in the public API
const (
	BlockSize      = protocol.BlockSize
	MsgSize        = protocol.MsgSize
	DefaultChannel = protocol.DefaultChannel
	MaxChannel     = protocol.MaxChannel
)

var (
	WithTransform = transport.WithTransform
	WithCodec     = transport.WithCodec
	WithClock     = transport.WithClock
	WithLogger    = transport.WithLogger
	WithEarlyStop = transport.WithEarlyStop
)

func DefaultConfig() Config { return protocol.DefaultConfig() }

// New returns an engine on an arbitrary driver.
func New(d PacketDriver, cfg Config, opts ...Option) (*Engine, error) {
	return transport.New(d, cfg, opts...)
}
