package mining

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/pow"
	"github.com/bitfsorg/libminer-go/tx"
)

// Block is a solved template.
type Block struct {
	Header       block.Header // sealed: Nonce and Hash set
	Coinbase     *tx.Transaction
	Transactions []*tx.Transaction // coinbase first
	TxIDs        []chainhash.Hash
	Rejections   []Rejection
	ExtraNonce   uint64
	Attempts     uint64
}

func newBlock(tmpl *Template, res *pow.Result, rejected []Rejection, attempts uint64) *Block {
	hdr := tmpl.Header
	hdr.Seal(res.Nonce)
	return &Block{
		Header:       hdr,
		Coinbase:     tmpl.Coinbase,
		Transactions: tmpl.Transactions,
		TxIDs:        tmpl.TxIDs,
		Rejections:   rejected,
		ExtraNonce:   tmpl.ExtraNonce,
		Attempts:     attempts,
	}
}

// HashHex returns the block hash as 64 lowercase hex characters.
func (b *Block) HashHex() string {
	return block.HashHex(b.Header.Hash)
}

// TxIDHexes returns the transaction identifiers in block order.
func (b *Block) TxIDHexes() []string {
	out := make([]string, len(b.TxIDs))
	for i, id := range b.TxIDs {
		out[i] = block.HashHex(id)
	}
	return out
}

// Proof returns the Merkle inclusion proof of the i-th transaction.
func (b *Block) Proof(i int) (*block.MerkleProof, error) {
	if i < 0 || i >= len(b.TxIDs) {
		return nil, fmt.Errorf("%w: %d of %d", block.ErrIndexOutOfRange, i, len(b.TxIDs))
	}
	nodes, err := block.MerkleBranch(b.TxIDs, i)
	if err != nil {
		return nil, err
	}
	return &block.MerkleProof{
		TxID:  b.TxIDs[i],
		Index: uint32(i),
		Nodes: nodes,
	}, nil
}

// Verify re-derives every identifier, the Merkle root and the proof of work.
func (b *Block) Verify() error {
	if len(b.Transactions) == 0 || !b.Transactions[0].IsCoinbase() {
		return fmt.Errorf("%w: first transaction is not a coinbase", block.ErrInvalidHeader)
	}
	if len(b.Transactions) != len(b.TxIDs) {
		return fmt.Errorf("%w: %d transactions, %d ids", block.ErrInvalidHeader, len(b.Transactions), len(b.TxIDs))
	}
	for i, t := range b.Transactions {
		if t.ComputeID() != b.TxIDs[i] {
			return fmt.Errorf("%w: transaction %d id mismatch", block.ErrInvalidHeader, i)
		}
	}
	root, err := block.ComputeRoot(b.TxIDs)
	if err != nil {
		return err
	}
	if root != b.Header.MerkleRoot {
		return fmt.Errorf("%w: merkle root mismatch", block.ErrMerkleProofInvalid)
	}
	return block.VerifyPoW(&b.Header)
}
