package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodePacket(t *testing.T) {
	block := bytes.Repeat([]byte{0xAB}, BlockSize)

	data := EncodePacket(Packet{Kind: PacketData, Seq: 7, Block: block})
	if len(data) != PacketHeaderSize+BlockSize || data[0] != byte(PacketData) || data[1] != 7 {
		t.Fatalf("EncodePacket(data) = % x", data)
	}
	p, err := DecodePacket(data, BlockSize)
	if err != nil || p.Kind != PacketData || p.Seq != 7 || !bytes.Equal(p.Block, block) {
		t.Errorf("DecodePacket() = %+v, %v", p, err)
	}

	for _, k := range []PacketKind{PacketAck, PacketNak} {
		data := EncodePacket(Packet{Kind: k, Seq: 7, Block: block})
		if len(data) != PacketHeaderSize {
			t.Errorf("EncodePacket(%s) = % x, want header only", k, data)
		}
		// fixed-length radio packets carry stale bytes after the header
		p, err := DecodePacket(append(data, 0, 0), BlockSize)
		if err != nil || p.Kind != k || p.Seq != 7 || p.Block != nil {
			t.Errorf("DecodePacket(%s) = %+v, %v", k, p, err)
		}
	}
}

func TestPacketAnswers(t *testing.T) {
	tests := []struct {
		p    Packet
		seq  uint8
		want bool
	}{
		{Packet{Kind: PacketAck, Seq: 3}, 3, true},
		{Packet{Kind: PacketNak, Seq: 3}, 3, true},
		{Packet{Kind: PacketAck, Seq: 2}, 3, false},
		{Packet{Kind: PacketData, Seq: 3}, 3, false},
	}
	for _, tt := range tests {
		if got := tt.p.Answers(tt.seq); got != tt.want {
			t.Errorf("%+v.Answers(%d) = %v, want %v", tt.p, tt.seq, got, tt.want)
		}
	}
}

func TestDecodePacketErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"kind only", []byte{byte(PacketAck)}},
		{"short data", EncodePacket(Packet{Kind: PacketData, Block: []byte("abc")})},
		{"unknown kind", []byte{0x7f, 0}},
	}
	for _, tt := range tests {
		if _, err := DecodePacket(tt.data, BlockSize); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%s: DecodePacket() error = %v, want ErrInvalidPayload", tt.name, err)
		}
	}
	if s := PacketKind(0x7f).String(); s != "kind(0x7f)" {
		t.Errorf("String() = %q", s)
	}
}

func TestRadioAddress(t *testing.T) {
	a := DefaultRadioAddress()
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if a.FrequencyMHz() != 2400+DefaultChannel {
		t.Errorf("FrequencyMHz() = %d", a.FrequencyMHz())
	}
	a.Channel = MaxChannel + 1
	if err := a.Validate(); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("Validate(channel 126) error = %v, want ErrInvalidChannel", err)
	}
}
