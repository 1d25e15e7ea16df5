//go:build tinygo || baremetal

package protocol

// cbor relies on reflection TinyGo does not fully support.
func hostCodec(string) (Codec, bool) { return nil, false }
