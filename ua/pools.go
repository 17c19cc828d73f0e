// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import (
	"bytes"
	"io"

	"github.com/djherbis/buffer"
)

const defaultBufferSize = 64 * 1024

// bufferPool is a pool of capacity buffers
var bufferPool = buffer.NewMemPoolAt(int64(defaultBufferSize))

// Marshal returns the UA Binary encoding of the value.
func Marshal(v any) ([]byte, error) {
	buf := buffer.NewPartitionAt(bufferPool)
	defer buf.Reset()
	if err := NewBinaryEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	bs := make([]byte, buf.Len())
	if _, err := io.ReadFull(buf, bs); err != nil {
		return nil, BadEncodingError
	}
	return bs, nil
}

// Unmarshal decodes the UA Binary encoded data into the value pointed to by v.
func Unmarshal(data []byte, v any) error {
	return NewBinaryDecoder(bytes.NewReader(data)).Decode(v)
}
