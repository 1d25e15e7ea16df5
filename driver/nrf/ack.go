package nrf

import (
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

// airMargin covers the air time of a data packet and its answer at 1 Mbit/s
// plus radio ramp-up, with room to spare.
const airMargin = 10 * time.Millisecond

// AckWindow is how long a sender listens for the answer to one packet. The
// receiving driver answers from HasAvailableData/ReadBlock, which its engine
// calls at least every transport.PollInterval(cfg), so the window spans a whole
// poll interval.
func AckWindow(cfg proto.Config) time.Duration {
	return transport.PollInterval(cfg) + airMargin
}
