package blockstore

import "errors"

var (
	// ErrBlockNotFound indicates the block was not found in the store.
	ErrBlockNotFound = errors.New("blockstore: block not found")

	// ErrTxNotFound indicates the transaction was not found in the store.
	ErrTxNotFound = errors.New("blockstore: transaction not found")

	// ErrDuplicateBlock indicates a block with this hash already exists.
	ErrDuplicateBlock = errors.New("blockstore: duplicate block")

	// ErrChainBroken indicates a block does not extend the current tip.
	ErrChainBroken = errors.New("blockstore: block does not extend tip")

	// ErrInvalidBlock indicates a block fails its hash or Merkle checks.
	ErrInvalidBlock = errors.New("blockstore: invalid block")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("blockstore: required parameter is nil")
)
