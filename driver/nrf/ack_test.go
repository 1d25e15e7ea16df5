package nrf

import (
	"testing"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

func TestAckWindowCoversPollInterval(t *testing.T) {
	fast := proto.DefaultConfig()
	fast.InterPacketDelay = 0
	slow := proto.DefaultConfig()
	slow.InterPacketDelay = 200 * time.Millisecond

	for _, cfg := range []proto.Config{proto.DefaultConfig(), fast, slow} {
		poll := transport.PollInterval(cfg)
		if got := AckWindow(cfg); got <= poll {
			t.Errorf("AckWindow(delay %s) = %s, not longer than the poll interval %s", cfg.InterPacketDelay, got, poll)
		}
	}
}
