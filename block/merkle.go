package block

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// MerkleProof is an inclusion proof for one transaction of a block.
type MerkleProof struct {
	TxID  chainhash.Hash   // Leaf being proven
	Index uint32           // Position in the block's transaction list
	Nodes []chainhash.Hash // Sibling hashes, bottom-up
}

// hashPair returns DoubleDigest(left || right) over the raw 32-byte values.
func hashPair(left, right *chainhash.Hash) chainhash.Hash {
	var combined [2 * HashSize]byte
	copy(combined[:HashSize], left[:])
	copy(combined[HashSize:], right[:])
	return DoubleDigest(combined[:])
}

// ComputeRoot reduces an ordered list of transaction IDs to its Merkle root.
//
// Each level pairs adjacent hashes left to right; the parent of a pair is
// DoubleDigest(left || right). When a level has an odd length its last hash is
// paired with itself. A single ID is its own root.
func ComputeRoot(txIDs []chainhash.Hash) (chainhash.Hash, error) {
	if len(txIDs) == 0 {
		return chainhash.Hash{}, ErrEmptyTxList
	}

	level := make([]chainhash.Hash, len(txIDs))
	copy(level, txIDs)

	for n := len(level); n > 1; n = (n + 1) / 2 {
		for i := 0; i < n; i += 2 {
			right := i + 1
			if right == n {
				right = i
			}
			level[i/2] = hashPair(&level[i], &level[right])
		}
	}

	return level[0], nil
}

// MerkleBranch returns the sibling hashes needed to recompute the root from
// the leaf at index, ordered from the leaf level upwards.
func MerkleBranch(txIDs []chainhash.Hash, index int) ([]chainhash.Hash, error) {
	if len(txIDs) == 0 {
		return nil, ErrEmptyTxList
	}
	if index < 0 || index >= len(txIDs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(txIDs))
	}

	level := make([]chainhash.Hash, len(txIDs))
	copy(level, txIDs)

	var branch []chainhash.Hash
	for n := len(level); n > 1; n = (n + 1) / 2 {
		sibling := index ^ 1
		if sibling >= n {
			sibling = index
		}
		branch = append(branch, level[sibling])

		for i := 0; i < n; i += 2 {
			right := i + 1
			if right == n {
				right = i
			}
			level[i/2] = hashPair(&level[i], &level[right])
		}
		index /= 2
	}

	return branch, nil
}

// RootFromBranch recomputes a Merkle root from a leaf, its index and its branch.
//
//	hash = txID
//	for i, node in branch:
//	    if bit i of index is 0:  hash = DoubleDigest(hash || node)
//	    else:                    hash = DoubleDigest(node || hash)
func RootFromBranch(txID chainhash.Hash, index uint32, branch []chainhash.Hash) chainhash.Hash {
	hash := txID
	for i := range branch {
		if (index>>uint(i))&1 == 0 {
			hash = hashPair(&hash, &branch[i])
		} else {
			hash = hashPair(&branch[i], &hash)
		}
	}
	return hash
}

// VerifyMerkleProof checks that proof leads to expectedRoot.
func VerifyMerkleProof(proof *MerkleProof, expectedRoot chainhash.Hash) error {
	if proof == nil {
		return fmt.Errorf("%w: proof", ErrNilParam)
	}
	if RootFromBranch(proof.TxID, proof.Index, proof.Nodes) != expectedRoot {
		return ErrMerkleProofInvalid
	}
	return nil
}
