package protocol

import "fmt"

// PacketKind is the first byte of a link packet on drivers that acknowledge in
// software (the TCP link and the nRF5x radio, which has no hardware auto-ack).
//
//	data:     Kind(1) | Seq(1) | Block(BlockSize)
//	ack, nak: Kind(1) | Seq(1)
//
// An ack or nak echoes the sequence number of the data packet it answers, so a
// late answer to an earlier packet is never taken for the current one.
type PacketKind byte

const (
	PacketData PacketKind = 0x01
	PacketAck  PacketKind = 0x06
	PacketNak  PacketKind = 0x15

	// PacketHeaderSize is the number of bytes in front of the block.
	PacketHeaderSize = 2
)

func (k PacketKind) String() string {
	switch k {
	case PacketData:
		return "data"
	case PacketAck:
		return "ack"
	case PacketNak:
		return "nak"
	default:
		return fmt.Sprintf("kind(0x%02x)", byte(k))
	}
}

// Packet is one decoded link packet. Block is nil for acks and naks.
type Packet struct {
	Kind  PacketKind
	Seq   uint8
	Block []byte
}

// EncodePacket serialises p. The block is ignored for acks and naks.
func EncodePacket(p Packet) []byte {
	if p.Kind != PacketData {
		return []byte{byte(p.Kind), p.Seq}
	}
	data := make([]byte, PacketHeaderSize+len(p.Block))
	data[0] = byte(p.Kind)
	data[1] = p.Seq
	copy(data[PacketHeaderSize:], p.Block)
	return data
}

// DecodePacket checks the header and, for data packets, that exactly one block
// of blockSize bytes follows. Trailing bytes after an ack or nak are ignored so
// fixed-length radio packets decode too.
func DecodePacket(data []byte, blockSize int) (Packet, error) {
	if len(data) < PacketHeaderSize {
		return Packet{}, fmt.Errorf("%w: packet is %d bytes", ErrInvalidPayload, len(data))
	}
	p := Packet{Kind: PacketKind(data[0]), Seq: data[1]}
	switch p.Kind {
	case PacketAck, PacketNak:
		return p, nil
	case PacketData:
		if len(data)-PacketHeaderSize != blockSize {
			return p, fmt.Errorf("%w: data packet carries %d bytes, want %d",
				ErrInvalidPayload, len(data)-PacketHeaderSize, blockSize)
		}
		p.Block = make([]byte, blockSize)
		copy(p.Block, data[PacketHeaderSize:])
		return p, nil
	default:
		return p, fmt.Errorf("%w: unknown packet %s", ErrInvalidPayload, p.Kind)
	}
}

// Answers reports whether p is the ack or nak for the data packet numbered seq.
func (p Packet) Answers(seq uint8) bool {
	return (p.Kind == PacketAck || p.Kind == PacketNak) && p.Seq == seq
}
