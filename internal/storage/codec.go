package storage

import (
	"fmt"

	"github.com/golang/snappy"
)

const (
	encodingRaw    = "raw"
	encodingSnappy = "snappy"
)

// encodeValue returns the bytes to persist and the encoding tag to store
// alongside them.
func encodeValue(value []byte, compress bool) ([]byte, string) {
	if !compress {
		return value, encodingRaw
	}
	return snappy.Encode(nil, value), encodingSnappy
}

// decodeValue reverses encodeValue.
func decodeValue(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case encodingRaw, "":
		return data, nil
	case encodingSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value encoding %q", encoding)
	}
}
