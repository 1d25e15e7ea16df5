package transport

import (
	"context"
	"fmt"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// Receive reads one framed message and decodes it into v.
func (e *Engine) Receive(v any) error {
	buf, err := e.ReceiveRaw()
	if err != nil {
		return err
	}
	if err := e.codec.Unmarshal(buf, v); err != nil {
		e.record(func(s *Stats) { s.DecodeFailures++ })
		return proto.WrapError(proto.KindDecodingFailure, "cannot decode message", err)
	}
	return nil
}

// ReceiveRaw reads one framed message and returns the full MsgSize buffer after
// the inverse transform. Bytes past the last received block are zero.
//
// The first packet read must be a start marker, otherwise NotAStartSequence is
// returned and nothing else is consumed. Another start marker inside a message
// discards what was accumulated so far. The attempt times out when no block
// arrives for InactivityTimeout.
func (e *Engine) ReceiveRaw() ([]byte, error) {
	first := e.driver.ReadBlock()
	if e.framer.Classify(first) != proto.BlockStart {
		e.record(func(s *Stats) { s.RejectedStarts++ })
		return nil, proto.NewError(proto.KindNotAStartSequence, "first packet is not a start marker")
	}

	e.rx.Reset()
	defer e.rx.Reset()

	deadline := e.clock.Now().Add(e.cfg.InactivityTimeout)
	for e.clock.Now().Before(deadline) {
		if !e.driver.HasAvailableData() {
			e.clock.Sleep(e.pollInterval())
			continue
		}

		block := e.driver.ReadBlock()
		now := e.clock.Now()
		e.record(func(s *Stats) { s.LastSeen = now })

		switch e.framer.Classify(block) {
		case proto.BlockStart:
			e.log.Printf("[Engine] Start marker inside message, restarting\r\n")
			e.rx.Reset()
		case proto.BlockEnd:
			buf := e.rx.Bytes()
			if err := e.transform.Inverse(buf); err != nil {
				return nil, proto.WrapError(proto.KindDecodingFailure, "cannot decrypt message", err)
			}
			e.record(func(s *Stats) { s.MessagesReceived++ })
			e.log.Printf("[Engine] Message received (%d bytes)\r\n", e.rx.Len())
			return buf, nil
		default:
			if err := e.rx.Append(block); err != nil {
				if proto.IsKind(err, proto.KindBufferOverflow) {
					e.record(func(s *Stats) { s.Overflows++ })
				}
				e.log.Printf("[Engine] Dropping message: %v\r\n", err)
				return nil, err
			}
		}
		deadline = now.Add(e.cfg.InactivityTimeout)
	}

	e.record(func(s *Stats) { s.Timeouts++ })
	e.log.Printf("[Engine] Receive timed out after %d bytes\r\n", e.rx.Len())
	return nil, proto.WrapError(proto.KindReceiveTimeout, "receive timed out",
		fmt.Errorf("%w: no packet for %s", proto.ErrTimeout, e.cfg.InactivityTimeout))
}

// Listen polls the driver and calls fn with the result of every receive attempt
// until ctx is done. An attempt in progress is finished before ctx is checked.
func (e *Engine) Listen(ctx context.Context, fn func(raw []byte, err error)) error {
	e.driver.EnterReceiveMode()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !e.driver.HasAvailableData() {
			e.clock.Sleep(e.pollInterval())
			continue
		}
		raw, err := e.ReceiveRaw()
		fn(raw, err)
	}
}
