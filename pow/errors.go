package pow

import "errors"

var (
	// ErrSearchExhausted indicates no nonce in the searched range satisfies the
	// target. The caller should vary the timestamp or extranonce and retry.
	ErrSearchExhausted = errors.New("pow: nonce space exhausted")

	// ErrSearchTimeout indicates the search ran out of time. The caller may retry.
	ErrSearchTimeout = errors.New("pow: search timed out")

	// ErrInvalidRange indicates a nonce range whose start is after its end.
	ErrInvalidRange = errors.New("pow: invalid nonce range")

	// ErrInvalidTarget indicates the difficulty target is unset.
	ErrInvalidTarget = errors.New("pow: invalid target")

	// ErrEmptyPreimage indicates the header preimage is empty.
	ErrEmptyPreimage = errors.New("pow: empty header preimage")
)

// IsRetryable reports whether err can be cured by changing the header
// (timestamp or extranonce) and searching again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSearchExhausted) || errors.Is(err, ErrSearchTimeout)
}
