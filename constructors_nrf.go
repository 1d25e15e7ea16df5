//go:build tinygo || baremetal

// This file is built only for embedded targets (using real radio hardware).
package nrflink

import (
	"github.com/ystepanoff/nrflink/driver/nrf"
	proto "github.com/ystepanoff/nrflink/protocol"
)

// NewRadio configures the on-chip radio on channel, with the default pipe
// address, and returns an engine on it.
func NewRadio(channel uint8, cfg Config, opts ...Option) (*Engine, error) {
	addr := proto.DefaultRadioAddress()
	addr.Channel = channel
	d := nrf.New(addr)
	d.SetAckWindow(nrf.AckWindow(cfg))
	if err := d.Configure(); err != nil {
		return nil, err
	}
	return New(d, cfg, opts...)
}
