// Package nvm implements the durable script slot: a fixed-layout blob with
// an integrity-checked header, stored in a single region that survives
// power loss.
package nvm

import (
	"encoding/binary"
	"fmt"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// Blob layout: an 8-byte header followed by the script text in UTF-8.
//
//	offset 0..4  magic tag "AMBI"
//	offset 4     header checksum (XOR of bytes 0..8, checksum bytes zeroed)
//	offset 5     payload checksum (XOR of all payload bytes)
//	offset 6..8  payload length, big-endian uint16
const (
	HeaderSize = 8
	magicTag   = "AMBI"

	// MaxPayload is the largest script the 16-bit length field can carry.
	MaxPayload = 0xFFFF
)

// Encode serializes a script into a blob. The only allocation is the one
// output buffer of 8 + len(script) bytes.
func Encode(script string) ([]byte, error) {
	if len(script) > MaxPayload {
		return nil, fmt.Errorf("nvm: script is %d bytes, slot limit is %d", len(script), MaxPayload)
	}
	b := make([]byte, HeaderSize+len(script))
	copy(b, magicTag)
	binary.BigEndian.PutUint16(b[6:8], uint16(len(script)))
	b[4] = xorRange(b[:HeaderSize])
	copy(b[HeaderSize:], script)
	// The payload checksum lives in the header but is excluded from the
	// header checksum (both checksum bytes are zero while b[4] is computed).
	b[5] = xorRange(b[HeaderSize:])
	return b, nil
}

// Decode verifies a blob and returns its script. Any magic or checksum
// mismatch yields apperr.ErrCorruptBlob; callers must treat that identically
// to "no stored configuration". Trailing bytes beyond the payload length are
// ignored, since the region is a fixed-size slot.
func Decode(b []byte) (string, error) {
	if len(b) < HeaderSize {
		return "", fmt.Errorf("%w: short header (%d bytes)", apperr.ErrCorruptBlob, len(b))
	}
	if string(b[0:4]) != magicTag {
		return "", fmt.Errorf("%w: bad magic", apperr.ErrCorruptBlob)
	}

	header := make([]byte, HeaderSize)
	copy(header, b[:HeaderSize])
	wantHeader := header[4]
	wantPayload := header[5]
	header[4] = 0
	header[5] = 0
	if xorRange(header) != wantHeader {
		return "", fmt.Errorf("%w: header checksum mismatch", apperr.ErrCorruptBlob)
	}

	n := int(binary.BigEndian.Uint16(b[6:8]))
	if len(b) < HeaderSize+n {
		return "", fmt.Errorf("%w: truncated payload (%d of %d bytes)", apperr.ErrCorruptBlob, len(b)-HeaderSize, n)
	}
	payload := b[HeaderSize : HeaderSize+n]
	if xorRange(payload) != wantPayload {
		return "", fmt.Errorf("%w: payload checksum mismatch", apperr.ErrCorruptBlob)
	}
	return string(payload), nil
}

// xorRange is a coarse integrity guard, not a cryptographic one: it catches
// power-loss corruption, not tampering.
func xorRange(b []byte) byte {
	var crc byte
	for _, c := range b {
		crc ^= c
	}
	return crc
}
