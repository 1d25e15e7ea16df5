//go:build !tinygo && !baremetal

package stub

import (
	"sync"

	"github.com/ystepanoff/nrflink/transport"
)

// Driver is an in-memory PacketDriver for host-side testing. Two linked drivers
// behave like a pair of radios with auto-acknowledgment: a write is confirmed only
// when the peer is in receive mode and has room in its RX queue.
type Driver struct {
	mu        sync.Mutex
	blockSize int
	rxBuf     ringBuffer
	txBuf     ringBuffer
	peer      *Driver
	listening bool
	writes    int
	failAt    map[int]bool
}

var _ transport.PacketDriver = (*Driver)(nil)

func New(blockSize int) *Driver {
	return &Driver{blockSize: blockSize, listening: true, failAt: make(map[int]bool)}
}

// NewPair returns two drivers linked to each other.
func NewPair(blockSize int) (*Driver, *Driver) {
	a, b := New(blockSize), New(blockSize)
	a.Link(b)
	b.Link(a)
	return a, b
}

// Link makes writes on d arrive at peer. It does not link the other direction.
func (d *Driver) Link(peer *Driver) {
	d.mu.Lock()
	d.peer = peer
	d.mu.Unlock()
}

func (d *Driver) WriteBlock(block []byte) bool {
	if len(block) != d.blockSize {
		return false
	}
	frame := make([]byte, len(block))
	copy(frame, block)

	d.mu.Lock()
	d.txBuf.push(frame)
	n := d.writes
	d.writes++
	failed := d.failAt[n]
	peer := d.peer
	d.mu.Unlock()

	if failed || peer == nil {
		return false
	}
	return peer.deliver(frame)
}

func (d *Driver) deliver(frame []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.listening || d.rxBuf.full() {
		return false
	}
	d.rxBuf.push(append([]byte(nil), frame...))
	return true
}

// ReadBlock pops the oldest received packet, or returns nil if none is queued.
func (d *Driver) ReadBlock() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	frame, ok := d.rxBuf.pop()
	if !ok {
		return nil
	}
	return frame
}

func (d *Driver) HasAvailableData() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rxBuf.count > 0
}

func (d *Driver) EnterSendMode() {
	d.mu.Lock()
	d.listening = false
	d.mu.Unlock()
}

func (d *Driver) EnterReceiveMode() {
	d.mu.Lock()
	d.listening = true
	d.mu.Unlock()
}

// Listening reports whether the driver is in receive mode.
func (d *Driver) Listening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

// InjectRx queues a packet as if it had been received over the air.
func (d *Driver) InjectRx(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	d.rxBuf.push(frame)
}

// FailAt makes the writes with the given zero-based indices go unacknowledged.
// The packet is still logged but never reaches the peer.
func (d *Driver) FailAt(indices ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, i := range indices {
		d.failAt[i] = true
	}
}

// GetTxLog returns the most recent written packets, oldest first.
func (d *Driver) GetTxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity][]byte
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) full() bool { return rb.count == ringCapacity }

func (rb *ringBuffer) push(frame []byte) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.data[rb.tail] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() ([]byte, bool) {
	if rb.count == 0 {
		return nil, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return frame, true
}

func (rb *ringBuffer) snapshot() [][]byte {
	out := make([][]byte, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		out[c] = append([]byte(nil), rb.data[i]...)
		i = (i + 1) % ringCapacity
	}
	return out
}
