package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrMalformedTransaction indicates a transaction record is missing a required field.
	ErrMalformedTransaction = errors.New("tx: malformed transaction")

	// ErrValueConservation indicates the input total is below the output total.
	ErrValueConservation = errors.New("tx: value conservation violated")

	// ErrValueOverflow indicates a value total does not fit in 64 bits.
	ErrValueOverflow = errors.New("tx: value overflow")

	// ErrUnexpectedCoinbase indicates a candidate transaction carries a coinbase input.
	ErrUnexpectedCoinbase = errors.New("tx: unexpected coinbase input")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")
)
