package block

import "errors"

var (
	// ErrInvalidHash indicates a hash is not 64 hexadecimal characters.
	ErrInvalidHash = errors.New("block: invalid hash")

	// ErrInvalidTarget indicates a difficulty target is not 64 hexadecimal characters.
	ErrInvalidTarget = errors.New("block: invalid difficulty target")

	// ErrEmptyTxList indicates a Merkle root was requested for no transactions.
	ErrEmptyTxList = errors.New("block: empty transaction list")

	// ErrIndexOutOfRange indicates a leaf index outside the transaction list.
	ErrIndexOutOfRange = errors.New("block: leaf index out of range")

	// ErrMerkleProofInvalid indicates the computed Merkle root does not match the expected root.
	ErrMerkleProofInvalid = errors.New("block: merkle proof invalid")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("block: required parameter is nil")

	// ErrInvalidHeader indicates the header's stored hash does not match its fields.
	ErrInvalidHeader = errors.New("block: invalid header")

	// ErrInsufficientPoW indicates the header hash does not meet the target difficulty.
	ErrInsufficientPoW = errors.New("block: insufficient proof of work")

	// ErrChainBroken indicates headers do not form a valid chain.
	ErrChainBroken = errors.New("block: header chain broken")
)
