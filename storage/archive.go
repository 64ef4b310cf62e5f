package storage

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/tx"
)

// PutTransaction archives the canonical serialization of t under its
// identifier. t must be finalized.
func PutTransaction(s Store, t *tx.Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", ErrEmptyContent)
	}
	body := t.Serialize()
	if id := block.DoubleDigest(body); id != t.ID {
		return fmt.Errorf("%w: %s", ErrIDMismatch, t.IDHex())
	}
	return s.Put(t.ID, body)
}

// PutTransactions archives every transaction of a block.
func PutTransactions(s Store, txs []*tx.Transaction) error {
	for i, t := range txs {
		if err := PutTransaction(s, t); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// GetTransaction loads and decodes an archived transaction. The body must
// still hash to txID.
func GetTransaction(s Store, txID chainhash.Hash) (*tx.Transaction, error) {
	body, err := s.Get(txID)
	if err != nil {
		return nil, err
	}
	if block.DoubleDigest(body) != txID {
		return nil, fmt.Errorf("%w: %s", ErrIDMismatch, block.HashHex(txID))
	}

	rec, err := tx.DecodeRecord(body)
	if err != nil {
		return nil, err
	}
	rec.Tx.Finalize()
	return rec.Tx, nil
}
