package protocol

import "fmt"

// MaxChannel is the highest RF channel; channel n is 2400+n MHz.
const MaxChannel = 125

// RadioAddress identifies the pipe both radios must share.
type RadioAddress struct {
	Address uint32
	Prefix  byte
	Channel uint8
}

func DefaultRadioAddress() RadioAddress {
	return RadioAddress{
		Address: 0xE7E7E7E7,
		Prefix:  0xE7,
		Channel: DefaultChannel,
	}
}

func (a RadioAddress) Validate() error {
	if a.Channel > MaxChannel {
		return fmt.Errorf("%w: %d > %d", ErrInvalidChannel, a.Channel, MaxChannel)
	}
	return nil
}

// FrequencyMHz returns the carrier frequency of the channel.
func (a RadioAddress) FrequencyMHz() int { return 2400 + int(a.Channel) }
