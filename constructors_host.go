//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing).
package nrflink

import (
	"context"

	"github.com/ystepanoff/nrflink/driver/netlink"
	"github.com/ystepanoff/nrflink/driver/stub"
)

// NewLoopback returns two engines joined by an in-memory link.
func NewLoopback(cfg Config, opts ...Option) (*Engine, *Engine, error) {
	a, b := stub.NewPair(cfg.BlockSize)
	ea, err := New(a, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	eb, err := New(b, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return ea, eb, nil
}

// Dial returns an engine talking to a radio gateway (or another host) over TCP.
// proxyURL may be empty. The returned function closes the connection.
func Dial(ctx context.Context, addr, proxyURL string, cfg Config, opts ...Option) (*Engine, func() error, error) {
	conn, err := netlink.Dial(ctx, addr, proxyURL, cfg.BlockSize)
	if err != nil {
		return nil, nil, err
	}
	e, err := New(conn, cfg, opts...)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return e, conn.Close, nil
}

// Listen waits for one TCP peer on addr and returns an engine talking to it.
func Listen(ctx context.Context, addr string, cfg Config, opts ...Option) (*Engine, func() error, error) {
	conn, err := netlink.Listen(ctx, addr, cfg.BlockSize)
	if err != nil {
		return nil, nil, err
	}
	e, err := New(conn, cfg, opts...)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return e, conn.Close, nil
}
