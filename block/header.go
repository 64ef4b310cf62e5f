package block

import (
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// PreimageSize is the length of a base header preimage (without nonce).
//
// Layout: version(8) | prevBlock(64) | merkleRoot(64) | timestamp(8) | target(64)
const PreimageSize = FieldHexLen + HashHexLen + HashHexLen + FieldHexLen + HashHexLen

// SealedPreimageSize is the length of a preimage with the nonce appended.
const SealedPreimageSize = PreimageSize + FieldHexLen

// Header is a block header. Every field except Nonce and Hash is fixed before
// the proof-of-work search starts.
type Header struct {
	Version    uint32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32 // Unix seconds
	Target     Target
	Nonce      uint32
	Hash       chainhash.Hash // Computed: DoubleDigest of the sealed preimage
}

// Preimage returns the base header preimage: every field rendered as
// fixed-width lowercase hex and concatenated in header order. The nonce is
// appended only at search time.
func (h *Header) Preimage() []byte {
	buf := make([]byte, 0, SealedPreimageSize)
	buf = AppendFixedWidthHex(buf, h.Version)
	buf = appendHashHex(buf, &h.PrevBlock)
	buf = appendHashHex(buf, &h.MerkleRoot)
	buf = AppendFixedWidthHex(buf, h.Timestamp)
	buf = append(buf, h.Target[:]...)
	return buf
}

// SealedPreimage returns base || hex8(nonce) in a new slice.
func SealedPreimage(base []byte, nonce uint32) []byte {
	out := make([]byte, len(base), len(base)+FieldHexLen)
	copy(out, base)
	return AppendFixedWidthHex(out, nonce)
}

// ComputeHash computes the header hash for the current nonce.
func (h *Header) ComputeHash() chainhash.Hash {
	return DoubleDigest(SealedPreimage(h.Preimage(), h.Nonce))
}

// Seal sets the nonce and the resulting hash.
func (h *Header) Seal(nonce uint32) {
	h.Nonce = nonce
	h.Hash = h.ComputeHash()
}

func appendHashHex(dst []byte, h *chainhash.Hash) []byte {
	var buf [HashHexLen]byte
	hex.Encode(buf[:], h[:])
	return append(dst, buf[:]...)
}

// VerifyPoW checks that a header's hash meets its difficulty target. When
// h.Hash is set it must match the hash recomputed from the header fields.
func VerifyPoW(h *Header) error {
	if h == nil {
		return fmt.Errorf("%w: header", ErrNilParam)
	}
	if h.Target.IsZero() {
		return fmt.Errorf("%w: target not set", ErrInvalidHeader)
	}

	hash := h.ComputeHash()
	if h.Hash != (chainhash.Hash{}) && h.Hash != hash {
		return fmt.Errorf("%w: stored hash does not match header fields", ErrInvalidHeader)
	}

	var hashHex [HashHexLen]byte
	hex.Encode(hashHex[:], hash[:])
	if !h.Target.Satisfied(hashHex[:]) {
		return fmt.Errorf("%w: hash exceeds target", ErrInsufficientPoW)
	}
	return nil
}

// VerifyHeaderChain checks that a sequence of headers forms a valid chain.
// Each header's PrevBlock must match the previous header's hash and every
// header must carry valid proof of work. Headers are in ascending order.
func VerifyHeaderChain(headers []*Header) error {
	for i, curr := range headers {
		if curr == nil {
			return fmt.Errorf("%w: nil header at index %d", ErrNilParam, i)
		}
		if err := VerifyPoW(curr); err != nil {
			return fmt.Errorf("header %d: %w", i, err)
		}
		if i == 0 {
			continue
		}

		prevHash := headers[i-1].ComputeHash()
		if curr.PrevBlock != prevHash {
			return fmt.Errorf("%w: header %d PrevBlock does not match header %d hash", ErrChainBroken, i, i-1)
		}
	}
	return nil
}
