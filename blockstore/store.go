// Package blockstore persists mined blocks together with a Merkle inclusion
// proof for every transaction they contain.
package blockstore

import (
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/mining"
)

// StoredBlock is a block as kept in the store. Transaction bodies live in the
// transaction archive; only their identifiers are kept here.
type StoredBlock struct {
	Height     uint32 // assigned by PutBlock
	Header     block.Header
	TxIDs      []chainhash.Hash // coinbase first
	ExtraNonce uint64
	Attempts   uint64
}

// StoredTx locates a transaction inside a stored block.
type StoredTx struct {
	TxID      chainhash.Hash
	BlockHash chainhash.Hash
	Height    uint32
	Proof     *block.MerkleProof
}

// FromBlock converts a mined block for storage.
func FromBlock(b *mining.Block) *StoredBlock {
	ids := make([]chainhash.Hash, len(b.TxIDs))
	copy(ids, b.TxIDs)
	return &StoredBlock{
		Header:     b.Header,
		TxIDs:      ids,
		ExtraNonce: b.ExtraNonce,
		Attempts:   b.Attempts,
	}
}

// Store persists mined blocks.
type Store interface {
	// PutBlock appends a block on top of the current tip and indexes its
	// transactions. The block's Height is set on success.
	PutBlock(b *StoredBlock) error

	// GetBlock retrieves a block by hash.
	GetBlock(hash chainhash.Hash) (*StoredBlock, error)

	// GetBlockByHeight retrieves a block by height.
	GetBlockByHeight(height uint32) (*StoredBlock, error)

	// GetTip returns the block with the greatest height.
	GetTip() (*StoredBlock, error)

	// GetBlockCount returns the total number of stored blocks.
	GetBlockCount() (uint64, error)

	// GetTx retrieves a transaction's location and proof.
	GetTx(txID chainhash.Hash) (*StoredTx, error)
}

// checkBlock verifies b against its own header and links it to tip, which is
// nil for an empty store. It returns the height b will be stored at.
func checkBlock(b *StoredBlock, tip *StoredBlock) (uint32, error) {
	if b == nil {
		return 0, fmt.Errorf("%w: block", ErrNilParam)
	}
	if b.Header.Hash == (chainhash.Hash{}) {
		return 0, fmt.Errorf("%w: header is not sealed", ErrInvalidBlock)
	}
	if err := block.VerifyPoW(&b.Header); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	root, err := block.ComputeRoot(b.TxIDs)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}
	if root != b.Header.MerkleRoot {
		return 0, fmt.Errorf("%w: merkle root mismatch", ErrInvalidBlock)
	}

	if tip == nil {
		return 0, nil
	}
	if b.Header.PrevBlock != tip.Header.Hash {
		return 0, fmt.Errorf("%w: prev %s, tip %s at height %d", ErrChainBroken,
			block.HashHex(b.Header.PrevBlock), block.HashHex(tip.Header.Hash), tip.Height)
	}
	return tip.Height + 1, nil
}

// txEntries builds the transaction index entries of b.
func txEntries(b *StoredBlock) ([]*StoredTx, error) {
	entries := make([]*StoredTx, len(b.TxIDs))
	for i, id := range b.TxIDs {
		nodes, err := block.MerkleBranch(b.TxIDs, i)
		if err != nil {
			return nil, err
		}
		entries[i] = &StoredTx{
			TxID:      id,
			BlockHash: b.Header.Hash,
			Height:    b.Height,
			Proof: &block.MerkleProof{
				TxID:  id,
				Index: uint32(i),
				Nodes: nodes,
			},
		}
	}
	return entries, nil
}

// VerifyTx checks a stored transaction's Merkle proof against the header of
// the block that holds it.
func VerifyTx(s Store, txID chainhash.Hash) error {
	stx, err := s.GetTx(txID)
	if err != nil {
		return err
	}
	b, err := s.GetBlock(stx.BlockHash)
	if err != nil {
		return err
	}
	return block.VerifyMerkleProof(stx.Proof, b.Header.MerkleRoot)
}

// VerifyChain checks every stored block, from height 0 to the tip, for proof
// of work and linkage.
func VerifyChain(s Store) error {
	count, err := s.GetBlockCount()
	if err != nil {
		return err
	}
	headers := make([]*block.Header, 0, count)
	for h := uint64(0); h < count; h++ {
		b, err := s.GetBlockByHeight(uint32(h))
		if err != nil {
			return fmt.Errorf("height %d: %w", h, err)
		}
		headers = append(headers, &b.Header)
	}
	return block.VerifyHeaderChain(headers)
}

// MemStore is an in-memory implementation of Store for testing.
type MemStore struct {
	mu       sync.RWMutex
	byHash   map[chainhash.Hash]*StoredBlock
	byHeight []*StoredBlock
	txs      map[chainhash.Hash]*StoredTx
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates a new in-memory block store.
func NewMemStore() *MemStore {
	return &MemStore{
		byHash: make(map[chainhash.Hash]*StoredBlock),
		txs:    make(map[chainhash.Hash]*StoredTx),
	}
}

// PutBlock stores a block on top of the tip. A transaction already indexed
// by an earlier block keeps its first location.
func (s *MemStore) PutBlock(b *StoredBlock) error {
	if b == nil {
		return fmt.Errorf("%w: block", ErrNilParam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[b.Header.Hash]; exists {
		return ErrDuplicateBlock
	}
	var tip *StoredBlock
	if n := len(s.byHeight); n > 0 {
		tip = s.byHeight[n-1]
	}
	height, err := checkBlock(b, tip)
	if err != nil {
		return err
	}

	b.Height = height
	entries, err := txEntries(b)
	if err != nil {
		return err
	}

	s.byHash[b.Header.Hash] = b
	s.byHeight = append(s.byHeight, b)
	for _, e := range entries {
		if _, exists := s.txs[e.TxID]; !exists {
			s.txs[e.TxID] = e
		}
	}
	return nil
}

// GetBlock retrieves a block by hash.
func (s *MemStore) GetBlock(hash chainhash.Hash) (*StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byHash[hash]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

// GetBlockByHeight retrieves a block by height.
func (s *MemStore) GetBlockByHeight(height uint32) (*StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(height) >= len(s.byHeight) {
		return nil, ErrBlockNotFound
	}
	return s.byHeight[height], nil
}

// GetTip returns the block with the greatest height.
func (s *MemStore) GetTip() (*StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.byHeight) == 0 {
		return nil, ErrBlockNotFound
	}
	return s.byHeight[len(s.byHeight)-1], nil
}

// GetBlockCount returns the total number of stored blocks.
func (s *MemStore) GetBlockCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.byHeight)), nil
}

// GetTx retrieves a transaction's location and proof.
func (s *MemStore) GetTx(txID chainhash.Hash) (*StoredTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stx, ok := s.txs[txID]
	if !ok {
		return nil, ErrTxNotFound
	}
	return stx, nil
}
