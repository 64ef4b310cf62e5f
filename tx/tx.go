package tx

import (
	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
)

// Input is one transaction input: either a PrevoutInput or a CoinbaseInput.
type Input interface {
	isInput()
	appendCanonical(dst []byte) []byte
}

// PrevoutInput spends a prior output and carries the value it claims.
type PrevoutInput struct {
	Value uint64 // satoshis
}

// CoinbaseInput is the marker input of a coinbase transaction.
type CoinbaseInput struct {
	Payload  []byte // arbitrary data, commonly height/extranonce plus text
	Sequence uint32
}

func (PrevoutInput) isInput()  {}
func (CoinbaseInput) isInput() {}

// Output pays Value to an opaque spending-condition script.
type Output struct {
	Value        uint64 // satoshis
	ScriptPubKey []byte // not interpreted
}

// Transaction is a candidate or coinbase transaction.
//
// ID is derived from the other fields by Finalize and is never part of its
// own preimage. It is the zero hash until Finalize is called.
type Transaction struct {
	ID      chainhash.Hash
	Inputs  []Input
	Outputs []Output
}

// ComputeID returns DoubleDigest of the canonical serialization. It does not
// modify t.
func (t *Transaction) ComputeID() chainhash.Hash {
	return block.DoubleDigest(t.Serialize())
}

// Finalize computes the identifier and stores it in t.ID.
func (t *Transaction) Finalize() chainhash.Hash {
	t.ID = t.ComputeID()
	return t.ID
}

// IDHex returns the identifier as 64 lowercase hex characters.
func (t *Transaction) IDHex() string {
	return block.HashHex(t.ID)
}

// IsCoinbase reports whether t has exactly one input and it is a coinbase marker.
func (t *Transaction) IsCoinbase() bool {
	if len(t.Inputs) != 1 {
		return false
	}
	_, ok := t.Inputs[0].(CoinbaseInput)
	return ok
}

// hasCoinbaseInput reports whether any input is a coinbase marker.
func (t *Transaction) hasCoinbaseInput() bool {
	for _, in := range t.Inputs {
		if _, ok := in.(CoinbaseInput); ok {
			return true
		}
	}
	return false
}
