package tx

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/mitchellh/mapstructure"
)

// Record is a transaction decoded from an external JSON record.
type Record struct {
	DeclaredID string       // "txid" as found in the record; never trusted
	Tx         *Transaction // not finalized
}

type prevoutRecord struct {
	Prevout struct {
		Value uint64 `mapstructure:"value"`
	} `mapstructure:"prevout"`
}

type coinbaseRecord struct {
	Coinbase string `mapstructure:"coinbase"`
	Sequence uint64 `mapstructure:"sequence"`
}

type outputRecord struct {
	Value        uint64 `mapstructure:"value"`
	ScriptPubKey string `mapstructure:"scriptPubKey"`
}

// DecodeRecord decodes one JSON transaction record:
//
//	{"txid": "...", "vin": [{"prevout": {"value": N}} | {"coinbase": "<hex>", "sequence": N}],
//	 "vout": [{"value": N, "scriptPubKey": "<hex>"}]}
//
// "txid" is optional and ignored for hashing. Unknown keys are ignored. A
// missing or mistyped required field yields ErrMalformedTransaction.
func DecodeRecord(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTransaction, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: record is null", ErrMalformedTransaction)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after record", ErrMalformedTransaction)
	}

	rec := &Record{Tx: &Transaction{}}

	if v, ok := raw["txid"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: txid is not a string", ErrMalformedTransaction)
		}
		rec.DeclaredID = s
	}

	vin, err := requireList(raw, "vin")
	if err != nil {
		return nil, err
	}
	vout, err := requireList(raw, "vout")
	if err != nil {
		return nil, err
	}

	for i, entry := range vin {
		in, err := decodeInput(entry)
		if err != nil {
			return nil, fmt.Errorf("vin[%d]: %w", i, err)
		}
		rec.Tx.Inputs = append(rec.Tx.Inputs, in)
	}

	for i, entry := range vout {
		var or outputRecord
		if err := decodeStrict(entry, &or, "value", "scriptPubKey"); err != nil {
			return nil, fmt.Errorf("vout[%d]: %w", i, err)
		}
		s, err := script.NewFromHex(or.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("vout[%d]: %w: scriptPubKey: %w", i, ErrMalformedTransaction, err)
		}
		rec.Tx.Outputs = append(rec.Tx.Outputs, Output{
			Value:        or.Value,
			ScriptPubKey: []byte(*s),
		})
	}

	return rec, nil
}

func requireList(raw map[string]interface{}, key string) ([]interface{}, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedTransaction, key)
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedTransaction, key)
	}
	return list, nil
}

// decodeInput decodes one vin entry. Exactly one of "prevout" and "coinbase"
// must be present.
func decodeInput(entry interface{}) (Input, error) {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: input is not an object", ErrMalformedTransaction)
	}

	_, hasPrevout := m["prevout"]
	_, hasCoinbase := m["coinbase"]
	switch {
	case hasPrevout && hasCoinbase:
		return nil, fmt.Errorf("%w: input has both prevout and coinbase", ErrMalformedTransaction)
	case hasCoinbase:
		var cr coinbaseRecord
		if err := decodeStrict(m, &cr, "coinbase", "sequence"); err != nil {
			return nil, err
		}
		if cr.Sequence > math.MaxUint32 {
			return nil, fmt.Errorf("%w: sequence %d out of range", ErrMalformedTransaction, cr.Sequence)
		}
		payload, err := hex.DecodeString(cr.Coinbase)
		if err != nil {
			return nil, fmt.Errorf("%w: coinbase payload: %w", ErrMalformedTransaction, err)
		}
		return CoinbaseInput{Payload: payload, Sequence: uint32(cr.Sequence)}, nil
	case hasPrevout:
		prevout, ok := m["prevout"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: prevout is not an object", ErrMalformedTransaction)
		}
		if err := requireNonNull(prevout, "value"); err != nil {
			return nil, fmt.Errorf("prevout: %w", err)
		}
		var pr prevoutRecord
		if err := decodeStrict(m, &pr); err != nil {
			return nil, err
		}
		return PrevoutInput{Value: pr.Prevout.Value}, nil
	default:
		return nil, fmt.Errorf("%w: input has neither prevout nor coinbase", ErrMalformedTransaction)
	}
}

// decodeStrict decodes input into out, failing when any field of out is not
// present in input or when one of the required keys holds null.
func decodeStrict(input interface{}, out interface{}, required ...string) error {
	m, ok := input.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: expected an object", ErrMalformedTransaction)
	}
	if err := requireNonNull(m, required...); err != nil {
		return err
	}
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnset: true,
		Result:     out,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTransaction, err)
	}
	if err := d.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTransaction, err)
	}
	return nil
}

// requireNonNull fails when a key is present with a JSON null value.
// mapstructure counts such a key as set and decodes it to the zero value.
func requireNonNull(m map[string]interface{}, keys ...string) error {
	for _, k := range keys {
		if v, ok := m[k]; ok && v == nil {
			return fmt.Errorf("%w: %q is null", ErrMalformedTransaction, k)
		}
	}
	return nil
}
