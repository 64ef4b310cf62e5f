package block

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Target is a difficulty target rendered as 64 lowercase hex characters.
//
// A hash satisfies the target when its hex rendering sorts strictly before the
// target. Both sides are fixed-width, zero-padded, lowercase base-16, which
// makes the lexicographic order identical to the numeric order.
type Target [HashHexLen]byte

// ParseTarget parses a 64-character hex target. Upper-case digits are
// normalized to lower case.
func ParseTarget(s string) (Target, error) {
	var t Target
	if len(s) != HashHexLen {
		return t, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidTarget, HashHexLen, len(s))
	}
	s = strings.ToLower(s)
	if _, err := hex.DecodeString(s); err != nil {
		return t, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	copy(t[:], s)
	return t, nil
}

// MustParseTarget is like ParseTarget but panics on error. It is intended for
// package-level constants and tests.
func MustParseTarget(s string) Target {
	t, err := ParseTarget(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the hex form of the target.
func (t Target) String() string {
	return string(t[:])
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t == Target{}
}

// Unsatisfiable reports whether no hash can sort below t, either because t
// is unset or because every digit is '0'.
func (t Target) Unsatisfiable() bool {
	for _, c := range t {
		if c != 0 && c != '0' {
			return false
		}
	}
	return true
}

// Satisfied reports whether the 64-char lowercase hex hash sorts strictly
// before the target.
func (t *Target) Satisfied(hashHex []byte) bool {
	return bytes.Compare(hashHex, t[:]) < 0
}

// Big returns the numeric value of the target.
func (t Target) Big() *big.Int {
	n, _ := new(big.Int).SetString(string(t[:]), 16)
	if n == nil {
		return new(big.Int)
	}
	return n
}

// TargetFromCompact converts a Bitcoin "compact" (nBits) representation to a
// target. Format: 0xEEMMMMMM where EE=exponent, MMMMMM=mantissa.
func TargetFromCompact(bits uint32) Target {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff
	// Negative flag (bit 23 of mantissa): treat as zero target.
	if bits&0x00800000 != 0 {
		mantissa = 0
	}

	var raw [HashSize]byte
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		raw[31] = byte(mantissa)
		raw[30] = byte(mantissa >> 8)
		raw[29] = byte(mantissa >> 16)
	} else {
		pos := HashSize - int(exponent)
		if pos >= 0 && pos < HashSize {
			raw[pos] = byte(mantissa >> 16)
		}
		if pos+1 >= 0 && pos+1 < HashSize {
			raw[pos+1] = byte(mantissa >> 8)
		}
		if pos+2 >= 0 && pos+2 < HashSize {
			raw[pos+2] = byte(mantissa)
		}
	}

	var t Target
	hex.Encode(t[:], raw[:])
	return t
}

// two256 is the constant 2^256, precomputed for work calculations.
var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// ExpectedAttempts computes the expected number of hashes needed to satisfy
// the target: 2^256 / (target + 1). Returns zero for a zero target.
func ExpectedAttempts(t Target) *big.Int {
	target := t.Big()
	if target.Sign() <= 0 {
		return new(big.Int)
	}
	denominator := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(two256, denominator)
}
