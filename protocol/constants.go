package protocol

import "time"

// Generic link & protocol constants (platform independent). All higher layers should depend on this file.
const (
	// Frame sizing
	// Wire layout (every packet is exactly BlockSize bytes):
	//   [Start marker] [Block 0] ... [Block n-1] [End marker]    n = MsgSize / BlockSize
	// Markers are zero-padded to BlockSize and told apart from data only by content.

	// BlockSize is the fixed radio payload size (nRF24L01+ static payload).
	BlockSize = 32
	// MsgSize is the fixed capacity of one framed message.
	MsgSize = 64

	// RF defaults (can be overridden per device)
	DefaultChannel = 7

	// Timings
	InterPacketDelay  = 50 * time.Millisecond
	InactivityTimeout = 2000 * time.Millisecond

	// pingText is written as a single block by the link check helper.
	pingText = "ping"
)

// Marker sequences include the terminating NUL, so "#~~~START~~~#" is 14 bytes on air.
var (
	DefaultStartMarker = []byte("#~~~START~~~#\x00")
	DefaultEndMarker   = []byte("#~~~END~~~#\x00")
)
