package transport

import (
	"fmt"
	"time"
)

// Stats counts framing outcomes on one engine.
type Stats struct {
	MessagesSent     uint64
	MessagesReceived uint64
	DeliveryFailures uint64
	Timeouts         uint64
	RejectedStarts   uint64
	DecodeFailures   uint64
	Overflows        uint64

	// LastSeen is the time of the last block received inside a message, or of the
	// last confirmed send.
	LastSeen time.Time
}

// IsAlive reports whether the peer was heard from within window.
func (s Stats) IsAlive(now time.Time, window time.Duration) bool {
	return !s.LastSeen.IsZero() && now.Sub(s.LastSeen) < window
}

func (s Stats) String() string {
	return fmt.Sprintf("sent: %d, received: %d, delivery failures: %d, timeouts: %d, rejected starts: %d, decode failures: %d, overflows: %d",
		s.MessagesSent, s.MessagesReceived, s.DeliveryFailures, s.Timeouts, s.RejectedStarts, s.DecodeFailures, s.Overflows)
}
