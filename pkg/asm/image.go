package asm

import (
	"encoding/binary"
	"fmt"
)

// EncodeImage serialises words as big-endian pairs of bytes, the format
// .copy reads back.
func EncodeImage(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(out[i*2:], w)
	}
	return out
}

// DecodeImage is the inverse of EncodeImage.
func DecodeImage(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrMalformedImage, len(data))
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return words, nil
}
