//go:build tinygo || baremetal

package nrf

import (
	"time"
	"unsafe"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"

	"device/nrf"
)

// On-air packets are protocol link packets: kind and sequence number before the
// block. The RADIO peripheral has no hardware acknowledgment, so the receiver
// answers every data packet with an ack (queued) or nak (queue full) echoing its
// sequence number. The answer is sent when the receiving engine next polls the
// driver, so the sender listens for AckWindow.
const (
	packetLen  = proto.PacketHeaderSize + proto.BlockSize
	rxCapacity = 8
)

// Driver is a PacketDriver backed by the nRF5x RADIO peripheral registers.
type Driver struct {
	addr      proto.RadioAddress
	ackWindow time.Duration
	seq       uint8
	buffer    [packetLen]byte
	rx        [rxCapacity][proto.BlockSize]byte
	rxHead    int
	rxCount   int
	listening bool
}

var _ transport.PacketDriver = (*Driver)(nil)

func New(addr proto.RadioAddress) *Driver {
	return &Driver{addr: addr, ackWindow: AckWindow(proto.DefaultConfig())}
}

// SetAckWindow sets how long WriteBlock listens for the answer. Use
// AckWindow(cfg) for the engine config both peers run.
func (d *Driver) SetAckWindow(w time.Duration) {
	if w > 0 {
		d.ackWindow = w
	}
}

// Configure starts the clock, programs the radio and enters receive mode.
func (d *Driver) Configure() error {
	StartHFCLK()
	if err := ConfigureRadio(d.addr, packetLen); err != nil {
		return err
	}
	d.EnterReceiveMode()
	return nil
}

func (d *Driver) SetChannel(channel uint8) error {
	addr := d.addr
	addr.Channel = channel
	if err := addr.Validate(); err != nil {
		return err
	}
	d.addr = addr
	disable()
	nrf.RADIO.FREQUENCY.Set(uint32(channel))
	if d.listening {
		d.startRx()
	}
	return nil
}

func (d *Driver) EnterSendMode() {
	d.listening = false
	disable()
}

func (d *Driver) EnterReceiveMode() {
	d.listening = true
	d.startRx()
}

func (d *Driver) WriteBlock(block []byte) bool {
	if len(block) != proto.BlockSize {
		return false
	}
	d.seq++
	seq := d.seq
	disable()
	copy(d.buffer[:], proto.EncodePacket(proto.Packet{Kind: proto.PacketData, Seq: seq, Block: block}))
	d.transmit()

	deadline := time.Now().Add(d.ackWindow)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		d.startRx()
		if !d.waitEnd(remaining) {
			disable()
			return false
		}
		disable()
		if !d.crcOK() {
			continue
		}
		p, err := proto.DecodePacket(d.buffer[:], proto.BlockSize)
		if err == nil && p.Answers(seq) {
			return p.Kind == proto.PacketAck
		}
	}
}

func (d *Driver) HasAvailableData() bool {
	d.poll()
	return d.rxCount > 0
}

func (d *Driver) ReadBlock() []byte {
	d.poll()
	if d.rxCount == 0 {
		return nil
	}
	out := make([]byte, proto.BlockSize)
	copy(out, d.rx[d.rxHead][:])
	d.rxHead = (d.rxHead + 1) % rxCapacity
	d.rxCount--
	return out
}

// poll moves a finished reception into the queue, answers it and re-arms the
// receiver.
func (d *Driver) poll() {
	if !d.listening || nrf.RADIO.EVENTS_END.Get() == 0 {
		return
	}
	disable()
	if d.crcOK() {
		if p, err := proto.DecodePacket(d.buffer[:], proto.BlockSize); err == nil && p.Kind == proto.PacketData {
			reply := proto.Packet{Kind: proto.PacketNak, Seq: p.Seq}
			if d.rxCount < rxCapacity {
				tail := (d.rxHead + d.rxCount) % rxCapacity
				copy(d.rx[tail][:], p.Block)
				d.rxCount++
				reply.Kind = proto.PacketAck
			}
			copy(d.buffer[:], proto.EncodePacket(reply))
			d.transmit()
		}
	}
	d.startRx()
}

func (d *Driver) crcOK() bool { return nrf.RADIO.CRCSTATUS.Get() == 1 }

func (d *Driver) startRx() {
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_RXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
}

func (d *Driver) transmit() {
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_TXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
	for nrf.RADIO.EVENTS_END.Get() == 0 {
	}
	disable()
}

func (d *Driver) waitEnd(timeout time.Duration) bool {
	start := time.Now()
	for nrf.RADIO.EVENTS_END.Get() == 0 {
		if time.Since(start) > timeout {
			return false
		}
	}
	return true
}
