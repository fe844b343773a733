// internal/journal/compression.go
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// zstdCodec stores entries as JSON, zstd-compressed once they reach minSize.
// Large batch renames produce big pair lists; small entries stay readable.
type zstdCodec struct {
	minSize int
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func newZstdCodec(minSize int) (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &zstdCodec{minSize: minSize, enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.minSize <= 0 || len(data) < c.minSize {
		return data, nil
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *zstdCodec) Decode(data []byte, v any) error {
	if isCompressed(data) {
		plain, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompressing entry: %w", err)
		}
		data = plain
	}
	return json.Unmarshal(data, v)
}

func (c *zstdCodec) close() {
	c.enc.Close()
	c.dec.Close()
}

func isCompressed(data []byte) bool {
	return len(data) > 4 && bytes.Equal(data[:4], zstdMagic)
}
