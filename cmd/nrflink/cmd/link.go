package cmd

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ystepanoff/nrflink/driver/chaos"
	"github.com/ystepanoff/nrflink/driver/netlink"
	"github.com/ystepanoff/nrflink/driver/stub"
	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

// linkOptions are the per-command knobs that are not part of the config file.
type linkOptions struct {
	simulate bool          // run a sensor node on the far end of a stub link
	interval time.Duration // simulated node report interval
	loss     float64
	corrupt  float64
}

// openLink builds the driver named by the config and an engine on top of it.
// The returned function releases the driver and the key.
func openLink(ctx context.Context, opts linkOptions) (*transport.Engine, func(), error) {
	pc := cfg.Link.Protocol()
	tr, releaseKey, err := cfg.Crypto.Transform()
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: %w", err)
	}
	engineOpts := []transport.Option{
		transport.WithTransform(tr),
		transport.WithCodec(cfg.MessageCodec()),
		transport.WithLogger(logger),
		transport.WithEarlyStop(cfg.Link.EarlyStop),
	}

	closers := []func(){releaseKey}
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var drv transport.PacketDriver
	switch cfg.Transport.Kind {
	case "netlink":
		nlOpts := []netlink.Option{netlink.WithAckTimeout(cfg.Transport.AckTimeout), netlink.WithLogger(logger)}
		var conn *netlink.Conn
		if cfg.Transport.Listen != "" {
			logger.Printf("[Link] Waiting for a peer on %s\r\n", cfg.Transport.Listen)
			conn, err = netlink.Listen(ctx, cfg.Transport.Listen, pc.BlockSize, nlOpts...)
		} else {
			conn, err = netlink.Dial(ctx, cfg.Transport.Dial, cfg.Transport.Proxy, pc.BlockSize, nlOpts...)
		}
		if err != nil {
			release()
			return nil, nil, err
		}
		closers = append(closers, func() { conn.Close() })
		drv = conn
	default:
		local, remote := stub.NewPair(pc.BlockSize)
		drv = local
		if opts.simulate {
			node, err := transport.New(remote, pc, engineOpts...)
			if err != nil {
				release()
				return nil, nil, err
			}
			nodeCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				runSimulatedNode(nodeCtx, node, opts.interval)
			}()
			closers = append(closers, func() { cancel(); <-done })
		}
	}

	if opts.loss > 0 || opts.corrupt > 0 {
		drv = chaos.Wrap(drv, chaos.Config{Up: true, Loss: opts.loss, Corrupt: opts.corrupt})
	}

	engine, err := transport.New(drv, pc, engineOpts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return engine, release, nil
}

// runSimulatedNode sends a sensor report every interval until ctx is done.
func runSimulatedNode(ctx context.Context, e *transport.Engine, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := e.Send(simulatedReport(rng)); err != nil {
			logger.Printf("[Node] %v\r\n", err)
		}
	}
}

func simulatedReport(rng *rand.Rand) proto.SensorReport {
	round := func(v float64) *float64 {
		v = math.Round(v*10) / 10
		return &v
	}
	return proto.SensorReport{
		Type: proto.ReportTypeSensors,
		Payload: map[string]*float64{
			"p": round(float64(rng.Intn(2))),
			"h": round(35 + rng.Float64()*20),
			"t": round(18 + rng.Float64()*8),
		},
	}
}
