package transport

import "time"

// PacketDriver is the interface that wraps the basic radio operations the framing
// engine needs. Every block is exactly Config.BlockSize bytes.
//
// WriteBlock reports whether the packet was confirmed by the link (for nRF24 radios:
// the auto-acknowledgment arrived). ReadBlock is only called after HasAvailableData
// returned true.
type PacketDriver interface {
	WriteBlock(block []byte) bool
	ReadBlock() []byte
	HasAvailableData() bool
	EnterSendMode()
	EnterReceiveMode()
}

// Clock is the time source and sleep primitive used by the busy-wait loops.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Logger is the debug side channel. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
