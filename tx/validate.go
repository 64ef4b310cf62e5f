package tx

import (
	"fmt"
	"math/bits"
)

// InputTotal sums the claimed values of t's inputs. Coinbase markers count 0.
func InputTotal(t *Transaction) (uint64, error) {
	var total uint64
	for i, in := range t.Inputs {
		var v uint64
		switch in := in.(type) {
		case PrevoutInput:
			v = in.Value
		case CoinbaseInput:
		default:
			return 0, fmt.Errorf("%w: vin[%d] is empty", ErrMalformedTransaction, i)
		}
		sum, carry := bits.Add64(total, v, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: %w: input total", ErrMalformedTransaction, ErrValueOverflow)
		}
		total = sum
	}
	return total, nil
}

// OutputTotal sums the values of t's outputs.
func OutputTotal(t *Transaction) (uint64, error) {
	var total uint64
	for i := range t.Outputs {
		sum, carry := bits.Add64(total, t.Outputs[i].Value, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: %w: output total", ErrMalformedTransaction, ErrValueOverflow)
		}
		total = sum
	}
	return total, nil
}

// Validate checks the structure of t and, unless t is a coinbase transaction,
// that its input total covers its output total.
func Validate(t *Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if len(t.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrMalformedTransaction)
	}
	if len(t.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrMalformedTransaction)
	}

	in, err := InputTotal(t)
	if err != nil {
		return err
	}
	out, err := OutputTotal(t)
	if err != nil {
		return err
	}

	if t.IsCoinbase() {
		return nil
	}
	if in < out {
		return fmt.Errorf("%w: inputs %d < outputs %d", ErrValueConservation, in, out)
	}
	return nil
}

// ValidateCandidate validates a transaction offered for inclusion in a block.
// Candidates may not carry coinbase markers; the block's only coinbase is
// built by the assembler.
func ValidateCandidate(t *Transaction) error {
	if t != nil && t.hasCoinbaseInput() {
		return ErrUnexpectedCoinbase
	}
	return Validate(t)
}
