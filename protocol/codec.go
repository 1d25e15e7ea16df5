package protocol

import (
	"bytes"
	"encoding/json"
)

// Codec turns a message value into the plaintext payload and back.
// Unmarshal receives the full NUL-padded buffer.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(buf []byte, v any) error
}

// JSONCodec is the default codec, compatible with ArduinoJson peers.
// Valid JSON never ends in '#', so it cannot produce a marker block.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(buf []byte, v any) error {
	return json.Unmarshal(bytes.TrimRight(buf, "\x00"), v)
}

// CodecByName maps a configuration name to a codec. Firmware builds only know json.
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSONCodec{}, true
	default:
		return hostCodec(name)
	}
}
