// Package pow searches the 32-bit nonce space for a header hash below a
// difficulty target.
package pow

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
)

// checkInterval is how many nonces are tried between cancellation checks.
// Must be a power of two.
const checkInterval = 1 << 12

// NonceRange is an inclusive range of nonces.
type NonceRange struct {
	Start uint32
	End   uint32
}

// FullRange covers every 32-bit nonce.
func FullRange() NonceRange {
	return NonceRange{Start: 0, End: math.MaxUint32}
}

// Size returns the number of nonces in r.
func (r NonceRange) Size() uint64 {
	if r.Start > r.End {
		return 0
	}
	return uint64(r.End) - uint64(r.Start) + 1
}

// Result is a solved header.
type Result struct {
	Hash     chainhash.Hash
	Nonce    uint32
	Attempts uint64 // hashes computed, across all workers
}

// HashHex returns the solving hash as 64 lowercase hex characters.
func (r *Result) HashHex() string {
	return block.HashHex(r.Hash)
}

// searcher hashes one preimage with varying nonces. The buffer is allocated
// once; each attempt only rewrites the trailing 8 nonce digits.
type searcher struct {
	buf     []byte
	off     int
	hashHex [block.HashHexLen]byte
	target  *block.Target
}

func newSearcher(preimage []byte, target *block.Target) *searcher {
	buf := make([]byte, len(preimage)+block.FieldHexLen)
	copy(buf, preimage)
	return &searcher{buf: buf, off: len(preimage), target: target}
}

// try hashes preimage || hex8(nonce) and reports whether it meets the target.
func (s *searcher) try(nonce uint32) (chainhash.Hash, bool) {
	block.PutFixedWidthHex(s.buf[s.off:], nonce)
	h := block.DoubleDigest(s.buf)
	hex.Encode(s.hashHex[:], h[:])
	return h, s.target.Satisfied(s.hashHex[:])
}

func checkArgs(preimage []byte, target *block.Target, r NonceRange) error {
	if len(preimage) == 0 {
		return ErrEmptyPreimage
	}
	if target.Unsatisfiable() {
		return ErrInvalidTarget
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Search tries nonces r.Start, r.Start+1, ... r.End in order and returns the
// first whose DoubleDigest(preimage || hex8(nonce)) sorts below target.
//
// It returns ErrSearchExhausted when no nonce in r qualifies and ctx.Err()
// when ctx is done first.
func Search(ctx context.Context, preimage []byte, target block.Target, r NonceRange) (*Result, error) {
	if err := checkArgs(preimage, &target, r); err != nil {
		return nil, err
	}

	s := newSearcher(preimage, &target)
	var attempts uint64
	for n := uint64(r.Start); n <= uint64(r.End); n++ {
		if attempts&(checkInterval-1) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		attempts++
		if h, ok := s.try(uint32(n)); ok {
			return &Result{Hash: h, Nonce: uint32(n), Attempts: attempts}, nil
		}
	}

	return nil, fmt.Errorf("%w: nonces %d..%d", ErrSearchExhausted, r.Start, r.End)
}
