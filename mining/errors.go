package mining

import "errors"

var (
	// ErrInvalidParams indicates the block parameters are incomplete.
	ErrInvalidParams = errors.New("mining: invalid parameters")

	// ErrDuplicateTransaction indicates a candidate whose identifier is already in the block.
	ErrDuplicateTransaction = errors.New("mining: duplicate transaction")

	// ErrExtraNonceExhausted indicates the nonce space was exhausted for every extranonce tried.
	ErrExtraNonceExhausted = errors.New("mining: extranonce retries exhausted")
)
