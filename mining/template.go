package mining

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/tx"
)

// Params are the protocol constants of a block template.
type Params struct {
	Version         uint32
	PrevBlock       chainhash.Hash // all zero for a genesis-style template
	Height          uint32         // committed to by the coinbase when non-zero
	Target          block.Target
	Subsidy         uint64 // satoshis
	CoinbasePayload []byte
	RewardScript    []byte
}

func (p *Params) validate() error {
	if p.Target.IsZero() {
		return fmt.Errorf("%w: difficulty target not set", ErrInvalidParams)
	}
	if p.Target.Unsatisfiable() {
		return fmt.Errorf("%w: difficulty target %s is zero", ErrInvalidParams, p.Target)
	}
	if len(p.RewardScript) == 0 {
		return fmt.Errorf("%w: reward script not set", ErrInvalidParams)
	}
	return nil
}

// Template is a block that has yet to be solved: every header field except
// the nonce is fixed.
type Template struct {
	Header       block.Header
	Coinbase     *tx.Transaction
	Transactions []*tx.Transaction // coinbase first
	TxIDs        []chainhash.Hash  // same order as Transactions
	ExtraNonce   uint64
}

// Preimage returns the header preimage without the nonce.
func (t *Template) Preimage() []byte {
	return t.Header.Preimage()
}

// NewTemplate builds the coinbase for extraNonce, prepends it to accepted,
// computes the Merkle root and assembles the header. accepted must hold
// finalized transactions.
func (g *Generator) NewTemplate(accepted []*tx.Transaction, timestamp uint32, extraNonce uint64) (*Template, error) {
	cb, err := tx.BuildCoinbase(tx.CoinbaseParams{
		Payload:      g.params.CoinbasePayload,
		Height:       g.params.Height,
		ExtraNonce:   extraNonce,
		Subsidy:      g.params.Subsidy,
		RewardScript: g.params.RewardScript,
	})
	if err != nil {
		return nil, fmt.Errorf("mining: build coinbase: %w", err)
	}

	txs := make([]*tx.Transaction, 0, len(accepted)+1)
	txs = append(txs, cb)
	txs = append(txs, accepted...)

	ids := make([]chainhash.Hash, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}

	root, err := block.ComputeRoot(ids)
	if err != nil {
		return nil, fmt.Errorf("mining: merkle root: %w", err)
	}

	return &Template{
		Header: block.Header{
			Version:    g.params.Version,
			PrevBlock:  g.params.PrevBlock,
			MerkleRoot: root,
			Timestamp:  timestamp,
			Target:     g.params.Target,
		},
		Coinbase:     cb,
		Transactions: txs,
		TxIDs:        ids,
		ExtraNonce:   extraNonce,
	}, nil
}
