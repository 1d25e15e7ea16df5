package transport

import (
	"sync"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// Engine implements message framing on top of a PacketDriver. It owns a single
// reassembly buffer, so one Engine must not run Send and Receive concurrently.
type Engine struct {
	driver    PacketDriver
	cfg       proto.Config
	framer    *proto.Framer
	rx        *proto.Reassembly
	transform proto.Transform
	codec     proto.Codec
	clock     Clock
	log       Logger
	earlyStop bool

	mu    sync.Mutex
	stats Stats
}

// Option configures an Engine in New.
type Option func(*Engine)

// WithTransform enables the byte transform (usually *protocol.AESTransform).
func WithTransform(t proto.Transform) Option {
	return func(e *Engine) {
		if t != nil {
			e.transform = t
		}
	}
}

func WithCodec(c proto.Codec) Option {
	return func(e *Engine) {
		if c != nil {
			e.codec = c
		}
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEarlyStop leaves trailing all-zero blocks off the wire. The receiver
// zero-fills its buffer, so the reassembled message is the same.
func WithEarlyStop(enabled bool) Option {
	return func(e *Engine) { e.earlyStop = enabled }
}

// New validates cfg and returns an Engine using the JSON codec, no transform and
// the wall clock unless overridden by opts.
func New(d PacketDriver, cfg proto.Config, opts ...Option) (*Engine, error) {
	framer, err := proto.NewFramer(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		driver:    d,
		cfg:       cfg,
		framer:    framer,
		rx:        proto.NewReassembly(cfg),
		transform: proto.Identity{},
		codec:     proto.JSONCodec{},
		clock:     systemClock{},
		log:       nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if err := cfg.CheckTransform(e.transform); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Config() proto.Config { return e.cfg }

// PollInterval is the longest an engine on cfg goes without checking the driver
// for data. A zero delay would never let a simulated clock advance.
func PollInterval(cfg proto.Config) time.Duration {
	if cfg.InterPacketDelay <= 0 {
		return time.Millisecond
	}
	return cfg.InterPacketDelay
}

func (e *Engine) pollInterval() time.Duration { return PollInterval(e.cfg) }

func (e *Engine) record(fn func(*Stats)) {
	e.mu.Lock()
	fn(&e.stats)
	e.mu.Unlock()
}

// Stats returns a snapshot of the link counters. Safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
