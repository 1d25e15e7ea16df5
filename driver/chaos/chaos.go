package chaos

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ystepanoff/nrflink/transport"
)

type Config struct {
	// Probabilities [0..1]
	Loss    float64 // packet lost in the air: a write is not acknowledged, a queued received packet is dropped
	AckLoss float64 // packet delivered but the acknowledgment is lost
	Corrupt float64 // flip one bit of a received packet

	// Link toggle
	Up bool

	// Seed (optional). If 0, uses time.Now().UnixNano()
	Seed int64
}

// Driver wraps a PacketDriver so both writes and reads pass through the fault model.
type Driver struct {
	under transport.PacketDriver

	up atomic.Bool

	cfgMu sync.RWMutex
	cfg   Config

	rngMu sync.Mutex
	rng   *rand.Rand

	rxMu    sync.Mutex
	pending []byte // survived Loss, not read yet
}

var _ transport.PacketDriver = (*Driver)(nil)

func Wrap(under transport.PacketDriver, cfg Config) *Driver {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.Loss = clamp01(cfg.Loss)
	cfg.AckLoss = clamp01(cfg.AckLoss)
	cfg.Corrupt = clamp01(cfg.Corrupt)
	d := &Driver{
		under: under,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	d.up.Store(cfg.Up)
	return d
}

func (d *Driver) WriteBlock(block []byte) bool {
	if !d.up.Load() {
		return false
	}
	cfg := d.getCfg()
	if d.roll() < cfg.Loss {
		return false
	}
	ok := d.under.WriteBlock(block)
	if ok && d.roll() < cfg.AckLoss {
		return false
	}
	return ok
}

func (d *Driver) ReadBlock() []byte {
	d.rxMu.Lock()
	block := d.pending
	d.pending = nil
	if block == nil {
		block = d.next()
	}
	d.rxMu.Unlock()

	if len(block) == 0 || d.roll() >= d.getCfg().Corrupt {
		return block
	}
	d.rngMu.Lock()
	bit := d.rng.Intn(len(block) * 8)
	d.rngMu.Unlock()
	block[bit/8] ^= 1 << (bit % 8)
	return block
}

// HasAvailableData reports false while the link is down; queued packets stay queued.
func (d *Driver) HasAvailableData() bool {
	if !d.up.Load() {
		return false
	}
	d.rxMu.Lock()
	defer d.rxMu.Unlock()
	if d.pending == nil {
		d.pending = d.next()
	}
	return d.pending != nil
}

// next reads from the wrapped driver until a packet survives Loss. Caller holds rxMu.
func (d *Driver) next() []byte {
	for d.under.HasAvailableData() {
		block := d.under.ReadBlock()
		if block == nil {
			return nil
		}
		if d.roll() >= d.getCfg().Loss {
			return block
		}
	}
	return nil
}

func (d *Driver) EnterSendMode()    { d.under.EnterSendMode() }
func (d *Driver) EnterReceiveMode() { d.under.EnterReceiveMode() }

// --- controls ---

func (d *Driver) SetUp(up bool)        { d.up.Store(up) }
func (d *Driver) SetLoss(p float64)    { d.cfgMu.Lock(); d.cfg.Loss = clamp01(p); d.cfgMu.Unlock() }
func (d *Driver) SetAckLoss(p float64) { d.cfgMu.Lock(); d.cfg.AckLoss = clamp01(p); d.cfgMu.Unlock() }
func (d *Driver) SetCorrupt(p float64) { d.cfgMu.Lock(); d.cfg.Corrupt = clamp01(p); d.cfgMu.Unlock() }
func (d *Driver) GetConfig() Config {
	cfg := d.getCfg()
	cfg.Up = d.up.Load()
	return cfg
}

func (d *Driver) getCfg() Config { d.cfgMu.RLock(); defer d.cfgMu.RUnlock(); return d.cfg }

func (d *Driver) roll() float64 {
	d.rngMu.Lock()
	x := d.rng.Float64()
	d.rngMu.Unlock()
	return x
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
