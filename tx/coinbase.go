package tx

import (
	"encoding/binary"
	"fmt"
)

// MaxSequence is the sequence number of the coinbase input (no relative timelock).
const MaxSequence uint32 = 0xffffffff

// CoinbaseParams holds parameters for building a coinbase transaction.
type CoinbaseParams struct {
	Payload      []byte // Coinbase input data
	Height       uint32 // Appended to Payload (little-endian) when non-zero
	ExtraNonce   uint64 // Appended after Height (little-endian) when non-zero
	Subsidy      uint64 // Block reward in satoshis
	RewardScript []byte // Locking script of the reward output
}

// BuildCoinbase constructs the reward transaction.
//
// Layout:
//
//	vin[0]:  coinbase marker, Payload[ || LE32(Height)][ || LE64(ExtraNonce)], sequence 0xffffffff
//	vout[0]: Subsidy -> RewardScript
//
// The returned transaction is finalized.
func BuildCoinbase(p CoinbaseParams) (*Transaction, error) {
	if len(p.RewardScript) == 0 {
		return nil, fmt.Errorf("%w: empty reward script", ErrInvalidParams)
	}

	payload := make([]byte, len(p.Payload), len(p.Payload)+12)
	copy(payload, p.Payload)
	// Blocks above height 0 commit to their height so the coinbase
	// identifier differs from block to block.
	if p.Height != 0 {
		payload = binary.LittleEndian.AppendUint32(payload, p.Height)
	}
	if p.ExtraNonce != 0 {
		payload = binary.LittleEndian.AppendUint64(payload, p.ExtraNonce)
	}

	rewardScript := make([]byte, len(p.RewardScript))
	copy(rewardScript, p.RewardScript)

	cb := &Transaction{
		Inputs: []Input{CoinbaseInput{
			Payload:  payload,
			Sequence: MaxSequence,
		}},
		Outputs: []Output{{
			Value:        p.Subsidy,
			ScriptPubKey: rewardScript,
		}},
	}
	cb.Finalize()
	return cb, nil
}
