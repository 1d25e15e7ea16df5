package transport

import (
	"fmt"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// Send encodes v with the engine codec and transmits it as one framed message.
// A value the codec rejects is an EncodingFailure; an encoding longer than MsgSize
// is an EncodingOverflow.
func (e *Engine) Send(v any) error {
	encoded, err := e.codec.Marshal(v)
	if err != nil {
		return proto.WrapError(proto.KindEncodingFailure, "cannot encode message", err)
	}
	return e.SendRaw(encoded)
}

// SendRaw transmits payload (at most MsgSize bytes) as Start, the data blocks and End,
// pausing InterPacketDelay after every packet. It stops at the first packet the
// driver does not confirm. The radio is back in receive mode when SendRaw returns.
func (e *Engine) SendRaw(payload []byte) error {
	buf, err := e.framer.Pad(payload)
	if err != nil {
		return err
	}
	if err := e.transform.Forward(buf); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	blocks, err := e.framer.Split(buf, e.earlyStop)
	if err != nil {
		return err
	}
	if err := e.framer.CheckReserved(blocks); err != nil {
		return err
	}

	e.driver.EnterSendMode()
	defer e.driver.EnterReceiveMode()

	if err := e.writePacket(e.framer.StartBlock(), proto.StageStart, 0); err != nil {
		return err
	}
	for i, block := range blocks {
		if err := e.writePacket(block, proto.StageBlock, i); err != nil {
			return err
		}
	}
	if err := e.writePacket(e.framer.EndBlock(), proto.StageEnd, 0); err != nil {
		return err
	}

	now := e.clock.Now()
	e.record(func(s *Stats) {
		s.MessagesSent++
		s.LastSeen = now
	})
	e.log.Printf("[Engine] Message sent (%d data blocks)\r\n", len(blocks))
	return nil
}

func (e *Engine) writePacket(block []byte, stage proto.Stage, index int) error {
	if !e.driver.WriteBlock(block) {
		e.record(func(s *Stats) { s.DeliveryFailures++ })
		err := proto.DeliveryFailed(stage, index)
		e.log.Printf("[Engine] %v\r\n", err)
		return err
	}
	e.clock.Sleep(e.cfg.InterPacketDelay)
	return nil
}

// Ping writes a single ping packet and reports whether the peer acknowledged it.
// The packet is not a start marker, so a listening engine rejects it without
// disturbing its state.
func (e *Engine) Ping() bool {
	e.driver.EnterSendMode()
	ok := e.driver.WriteBlock(e.cfg.PingBlock())
	e.driver.EnterReceiveMode()

	if ok {
		now := e.clock.Now()
		e.record(func(s *Stats) { s.LastSeen = now })
		e.log.Printf("[Engine] Ping acknowledged\r\n")
	} else {
		e.log.Printf("[Engine] Ping not acknowledged\r\n")
	}
	return ok
}
