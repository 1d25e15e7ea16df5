//go:build !tinygo && !baremetal

package stub

import (
	"bytes"
	"errors"
	"testing"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

func block(s string) []byte {
	b := make([]byte, proto.BlockSize)
	copy(b, s)
	return b
}

func TestPairDelivers(t *testing.T) {
	a, b := NewPair(proto.BlockSize)

	if !a.WriteBlock(block("hello")) {
		t.Fatal("WriteBlock() = false, want true")
	}
	if !b.HasAvailableData() {
		t.Fatal("peer has no data")
	}
	if got := b.ReadBlock(); !bytes.Equal(got, block("hello")) {
		t.Errorf("ReadBlock() = %q", got)
	}
	if b.HasAvailableData() || b.ReadBlock() != nil {
		t.Error("queue not empty after one read")
	}
	if log := a.GetTxLog(); len(log) != 1 {
		t.Errorf("tx log has %d entries, want 1", len(log))
	}
}

func TestWriteNotAcknowledged(t *testing.T) {
	tests := []struct {
		name  string
		setup func(a, b *Driver)
		data  []byte
	}{
		{"peer sending", func(a, b *Driver) { b.EnterSendMode() }, block("x")},
		{"wrong size", func(a, b *Driver) {}, []byte("short")},
		{"forced failure", func(a, b *Driver) { a.FailAt(0) }, block("x")},
		{"unlinked", func(a, b *Driver) { a.Link(nil) }, block("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := NewPair(proto.BlockSize)
			tt.setup(a, b)
			if a.WriteBlock(tt.data) {
				t.Error("WriteBlock() = true, want false")
			}
			if b.HasAvailableData() {
				t.Error("peer received an unacknowledged packet")
			}
		})
	}
}

func TestRxQueueFull(t *testing.T) {
	a, b := NewPair(proto.BlockSize)
	for i := 0; i < ringCapacity; i++ {
		if !a.WriteBlock(block("x")) {
			t.Fatalf("write %d not acknowledged", i)
		}
	}
	if a.WriteBlock(block("y")) {
		t.Error("WriteBlock() into full queue = true")
	}
	if got := b.ReadBlock(); !bytes.Equal(got, block("x")) {
		t.Errorf("oldest packet = %q", got)
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	var rb ringBuffer
	for i := 0; i < ringCapacity+2; i++ {
		rb.push([]byte{byte(i)})
	}
	snap := rb.snapshot()
	if len(snap) != ringCapacity || snap[0][0] != 2 {
		t.Fatalf("snapshot len=%d first=%v", len(snap), snap[0])
	}
	if f, ok := rb.pop(); !ok || f[0] != 2 {
		t.Errorf("pop() = %v, %v", f, ok)
	}
}

func TestEngineOverPair(t *testing.T) {
	cfg := proto.DefaultConfig()
	cfg.InterPacketDelay = 0

	a, b := NewPair(cfg.BlockSize)
	tx, err := transport.New(a, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rx, err := transport.New(b, cfg)
	if err != nil {
		t.Fatal(err)
	}

	v := 19.5
	if err := tx.Send(proto.SensorReport{Type: proto.ReportTypeSensors, Payload: map[string]*float64{"t": &v}}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !a.Listening() {
		t.Error("sender not back in receive mode")
	}

	var got proto.SensorReport
	if err := rx.Receive(&got); err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got.Payload["t"] == nil || *got.Payload["t"] != v {
		t.Errorf("Receive() = %+v", got)
	}

	// The link check packet is acknowledged but rejected as a message.
	if !tx.Ping() {
		t.Fatal("Ping() = false")
	}
	if _, err := rx.ReceiveRaw(); !errors.Is(err, proto.ErrNotAStartSequence) {
		t.Errorf("ReceiveRaw(ping) error = %v", err)
	}
}

func TestEngineDeliveryFailureOverPair(t *testing.T) {
	cfg := proto.DefaultConfig()
	cfg.InterPacketDelay = 0

	a, _ := NewPair(cfg.BlockSize)
	a.FailAt(2)
	tx, err := transport.New(a, cfg)
	if err != nil {
		t.Fatal(err)
	}

	err = tx.SendRaw([]byte("payload"))
	var fe *proto.Error
	if !errors.As(err, &fe) || fe.Stage != proto.StageBlock || fe.Index != 1 {
		t.Fatalf("SendRaw() error = %v, want delivery failure at block 1", err)
	}
	if n := len(a.GetTxLog()); n != 3 {
		t.Errorf("attempted %d packets, want 3", n)
	}
}
