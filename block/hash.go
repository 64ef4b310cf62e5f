package block

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

const (
	// HashSize is the size of a SHA256 hash in bytes.
	HashSize = chainhash.HashSize

	// HashHexLen is the length of a hash rendered as hexadecimal.
	HashHexLen = 2 * HashSize

	// FieldHexLen is the width of a hex-rendered 32-bit header field.
	FieldHexLen = 8
)

const hexDigits = "0123456789abcdef"

// Digest computes SHA256(data).
func Digest(data []byte) chainhash.Hash {
	return chainhash.HashH(data)
}

// DoubleDigest computes SHA256(SHA256(data)), matching Bitcoin's hash function.
func DoubleDigest(data []byte) chainhash.Hash {
	return chainhash.DoubleHashH(data)
}

// HashHex renders h as 64 lowercase hex characters in natural byte order.
// Unlike chainhash.Hash.String, the bytes are not reversed.
func HashHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}

// ParseHashHex is the inverse of HashHex.
func ParseHashHex(s string) (chainhash.Hash, error) {
	var h chainhash.Hash
	if len(s) != HashHexLen {
		return h, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidHash, HashHexLen, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(strings.ToLower(s))); err != nil {
		return h, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return h, nil
}

// FixedWidthHex renders v as 8 zero-padded lowercase hex digits.
func FixedWidthHex(v uint32) string {
	return string(AppendFixedWidthHex(make([]byte, 0, FieldHexLen), v))
}

// AppendFixedWidthHex appends the 8-digit hex rendering of v to dst.
func AppendFixedWidthHex(dst []byte, v uint32) []byte {
	var buf [FieldHexLen]byte
	PutFixedWidthHex(buf[:], v)
	return append(dst, buf[:]...)
}

// PutFixedWidthHex writes the 8-digit hex rendering of v into dst[:8].
// It panics if dst is shorter than 8 bytes.
func PutFixedWidthHex(dst []byte, v uint32) {
	_ = dst[FieldHexLen-1]
	for i := FieldHexLen - 1; i >= 0; i-- {
		dst[i] = hexDigits[v&0xf]
		v >>= 4
	}
}
