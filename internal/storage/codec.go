package storage

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Values are msgpack-encoded using their json tags, so stored field names
// match the export format.

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeValue(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	return nil
}
