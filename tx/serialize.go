package tx

import (
	"encoding/hex"
	"strconv"
)

// Serialize returns the canonical serialization of t: compact JSON with keys
// in sorted order and byte fields as lowercase hex.
//
//	{"vin":[{"coinbase":"<hex>","sequence":N} | {"prevout":{"value":N}}, ...],
//	 "vout":[{"scriptPubKey":"<hex>","value":N}, ...]}
//
// The ID field is never serialized.
func (t *Transaction) Serialize() []byte {
	buf := make([]byte, 0, t.serializedSizeHint())

	buf = append(buf, `{"vin":[`...)
	for i, in := range t.Inputs {
		if i > 0 {
			buf = append(buf, ',')
		}
		if in == nil {
			buf = append(buf, "null"...)
			continue
		}
		buf = in.appendCanonical(buf)
	}

	buf = append(buf, `],"vout":[`...)
	for i := range t.Outputs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = t.Outputs[i].appendCanonical(buf)
	}

	return append(buf, "]}"...)
}

func (in PrevoutInput) appendCanonical(dst []byte) []byte {
	dst = append(dst, `{"prevout":{"value":`...)
	dst = strconv.AppendUint(dst, in.Value, 10)
	return append(dst, "}}"...)
}

func (in CoinbaseInput) appendCanonical(dst []byte) []byte {
	dst = append(dst, `{"coinbase":"`...)
	dst = appendHex(dst, in.Payload)
	dst = append(dst, `","sequence":`...)
	dst = strconv.AppendUint(dst, uint64(in.Sequence), 10)
	return append(dst, '}')
}

func (out *Output) appendCanonical(dst []byte) []byte {
	dst = append(dst, `{"scriptPubKey":"`...)
	dst = appendHex(dst, out.ScriptPubKey)
	dst = append(dst, `","value":`...)
	dst = strconv.AppendUint(dst, out.Value, 10)
	return append(dst, '}')
}

func appendHex(dst, src []byte) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, hex.EncodedLen(len(src)))...)
	hex.Encode(dst[n:], src)
	return dst
}

func (t *Transaction) serializedSizeHint() int {
	size := 24
	for _, in := range t.Inputs {
		switch v := in.(type) {
		case CoinbaseInput:
			size += 40 + 2*len(v.Payload)
		default:
			size += 40
		}
	}
	for i := range t.Outputs {
		size += 50 + 2*len(t.Outputs[i].ScriptPubKey)
	}
	return size
}
