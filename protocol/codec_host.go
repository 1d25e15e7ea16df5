//go:build !tinygo && !baremetal

package protocol

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
)

// CBORCodec packs messages tighter than JSON. Payloads may contain NUL bytes;
// the decoder reads exactly one item and ignores the padding after it.
type CBORCodec struct{}

func (CBORCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBORCodec) Unmarshal(buf []byte, v any) error {
	return cbor.NewDecoder(bytes.NewReader(buf)).Decode(v)
}

func hostCodec(name string) (Codec, bool) {
	if name == "cbor" {
		return CBORCodec{}, true
	}
	return nil, false
}
