package tx

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libminer-go/block"
)

const (
	genesisPayload = "04ffff001d0104455468652054696d65732030332f4a616e2f32303233204368616e63656c6c6f72206f6e20626974636f696e2062756c6c"
	rewardScript   = "4104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac"

	idCoinbase     = "9819ce03a0ef680a13aab8fc1e9c82fb0604601468dcc797a86f1d981740fecb"
	idCoinbaseExt1 = "02136c269adf629b804c39714f1eca256fac3110ee0d875baaa617426e5e246f"
	idA            = "0d904c3738e92887aa2a3a63b6c75a6ddf830f1eebab6897797ff3553c385a38"
	idB            = "86d2e0ad7d452b1d197991a474cba56104310ad83247e47da2515f8b81571f0d"
	idC            = "7f5a5819c3058d58d1a2bc5b411baf65276ee272328573e27b550032df7b9609"

	recordA = `{"txid":"declared-a","vin":[{"prevout":{"value":100}}],"vout":[{"value":90,"scriptPubKey":"51"}]}`
	recordB = `{"vin":[{"prevout":{"value":60}},{"prevout":{"value":40}}],"vout":[{"value":100,"scriptPubKey":"52"}]}`
	recordC = `{"vout":[{"scriptPubKey":"53","value":500},{"value":400,"scriptPubKey":"54"}],"vin":[{"prevout":{"value":1000}}]}`
)

// --- Helper functions ---

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func simpleTx(in, out uint64) *Transaction {
	return &Transaction{
		Inputs:  []Input{PrevoutInput{Value: in}},
		Outputs: []Output{{Value: out, ScriptPubKey: []byte{0x51}}},
	}
}

func testCoinbase(t *testing.T, extraNonce uint64) *Transaction {
	t.Helper()
	cb, err := BuildCoinbase(CoinbaseParams{
		Payload:      mustHex(t, genesisPayload),
		ExtraNonce:   extraNonce,
		Subsidy:      50 * 100_000_000,
		RewardScript: mustHex(t, rewardScript),
	})
	require.NoError(t, err)
	return cb
}

// --- Serialization / identifier tests ---

func TestSerialize_Canonical(t *testing.T) {
	tx := &Transaction{
		Inputs: []Input{PrevoutInput{Value: 60}, PrevoutInput{Value: 40}},
		Outputs: []Output{
			{Value: 100, ScriptPubKey: []byte{0x52}},
		},
	}
	want := `{"vin":[{"prevout":{"value":60}},{"prevout":{"value":40}}],"vout":[{"scriptPubKey":"52","value":100}]}`
	assert.Equal(t, want, string(tx.Serialize()))
	assert.Equal(t, idB, block.HashHex(tx.ComputeID()))
}

func TestSerialize_Coinbase(t *testing.T) {
	cb := testCoinbase(t, 0)
	want := `{"vin":[{"coinbase":"` + genesisPayload + `","sequence":4294967295}],"vout":[{"scriptPubKey":"` + rewardScript + `","value":5000000000}]}`
	assert.Equal(t, want, string(cb.Serialize()))
}

func TestComputeID_IndependentOfIDField(t *testing.T) {
	tx := simpleTx(100, 90)
	before := tx.ComputeID()

	tx.ID = chainhash.Hash{0xde, 0xad}
	assert.Equal(t, before, tx.ComputeID())
	assert.Equal(t, idA, block.HashHex(before))
}

func TestComputeID_Deterministic(t *testing.T) {
	a, b := simpleTx(100, 90), simpleTx(100, 90)
	assert.Equal(t, a.ComputeID(), b.ComputeID())
	assert.NotEqual(t, a.ComputeID(), simpleTx(100, 91).ComputeID())
}

func TestFinalize(t *testing.T) {
	tx := simpleTx(100, 90)
	assert.Equal(t, chainhash.Hash{}, tx.ID)

	id := tx.Finalize()
	assert.Equal(t, id, tx.ID)
	assert.Equal(t, idA, tx.IDHex())
}

func TestIsCoinbase(t *testing.T) {
	assert.True(t, testCoinbase(t, 0).IsCoinbase())
	assert.False(t, simpleTx(1, 1).IsCoinbase())

	mixed := &Transaction{Inputs: []Input{CoinbaseInput{}, PrevoutInput{Value: 1}}}
	assert.False(t, mixed.IsCoinbase())
}

// --- Validation tests ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tx      *Transaction
		wantErr error
	}{
		{"balanced", simpleTx(100, 100), nil},
		{"fee", simpleTx(100, 1), nil},
		{"outputs exceed inputs", simpleTx(100, 101), ErrValueConservation},
		{"nil", nil, ErrNilParam},
		{"no inputs", &Transaction{Outputs: []Output{{Value: 1}}}, ErrMalformedTransaction},
		{"no outputs", &Transaction{Inputs: []Input{PrevoutInput{Value: 1}}}, ErrMalformedTransaction},
		{"nil input", &Transaction{Inputs: []Input{nil}, Outputs: []Output{{Value: 0}}}, ErrMalformedTransaction},
		{
			"input overflow",
			&Transaction{
				Inputs:  []Input{PrevoutInput{Value: math.MaxUint64}, PrevoutInput{Value: 1}},
				Outputs: []Output{{Value: 1}},
			},
			ErrValueOverflow,
		},
		{
			"output overflow",
			&Transaction{
				Inputs:  []Input{PrevoutInput{Value: math.MaxUint64}},
				Outputs: []Output{{Value: math.MaxUint64}, {Value: 1}},
			},
			ErrValueOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tx)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_OverflowIsMalformed(t *testing.T) {
	tx := &Transaction{
		Inputs:  []Input{PrevoutInput{Value: math.MaxUint64}, PrevoutInput{Value: 1}},
		Outputs: []Output{{Value: 1}},
	}
	assert.ErrorIs(t, Validate(tx), ErrMalformedTransaction)
}

func TestValidate_CoinbaseExempt(t *testing.T) {
	cb := testCoinbase(t, 0)
	in, err := InputTotal(cb)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), in)
	assert.NoError(t, Validate(cb))
}

func TestValidateCandidate_RejectsCoinbase(t *testing.T) {
	assert.ErrorIs(t, ValidateCandidate(testCoinbase(t, 0)), ErrUnexpectedCoinbase)

	mixed := &Transaction{
		Inputs:  []Input{PrevoutInput{Value: 10}, CoinbaseInput{}},
		Outputs: []Output{{Value: 1}},
	}
	assert.ErrorIs(t, ValidateCandidate(mixed), ErrUnexpectedCoinbase)

	assert.NoError(t, ValidateCandidate(simpleTx(10, 10)))
	assert.ErrorIs(t, ValidateCandidate(nil), ErrNilParam)
}

func TestTotals(t *testing.T) {
	tx := &Transaction{
		Inputs:  []Input{PrevoutInput{Value: 60}, PrevoutInput{Value: 40}},
		Outputs: []Output{{Value: 30}, {Value: 25}},
	}
	in, err := InputTotal(tx)
	require.NoError(t, err)
	out, err := OutputTotal(tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), in)
	assert.Equal(t, uint64(55), out)
}

// --- Coinbase tests ---

func TestBuildCoinbase(t *testing.T) {
	cb := testCoinbase(t, 0)

	require.Len(t, cb.Inputs, 1)
	in, ok := cb.Inputs[0].(CoinbaseInput)
	require.True(t, ok)
	assert.Equal(t, MaxSequence, in.Sequence)
	assert.Equal(t, genesisPayload, hex.EncodeToString(in.Payload))

	require.Len(t, cb.Outputs, 1)
	assert.Equal(t, uint64(5_000_000_000), cb.Outputs[0].Value)
	assert.Equal(t, rewardScript, hex.EncodeToString(cb.Outputs[0].ScriptPubKey))

	assert.Equal(t, idCoinbase, cb.IDHex())
	assert.Equal(t, cb.ComputeID(), cb.ID)
}

func TestBuildCoinbase_ExtraNonce(t *testing.T) {
	cb := testCoinbase(t, 1)

	in := cb.Inputs[0].(CoinbaseInput)
	assert.Equal(t, genesisPayload+"0100000000000000", hex.EncodeToString(in.Payload))
	assert.Equal(t, idCoinbaseExt1, cb.IDHex())
}

func TestBuildCoinbase_Height(t *testing.T) {
	params := CoinbaseParams{Payload: []byte("test"), Subsidy: 50, RewardScript: []byte{0x51}}
	base, err := BuildCoinbase(params)
	require.NoError(t, err)

	params.Height = 1
	h1, err := BuildCoinbase(params)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString([]byte("test"))+"01000000", hex.EncodeToString(h1.Inputs[0].(CoinbaseInput).Payload))
	assert.NotEqual(t, base.ID, h1.ID)

	params.ExtraNonce = 2
	h1ext, err := BuildCoinbase(params)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString([]byte("test"))+"01000000"+"0200000000000000", hex.EncodeToString(h1ext.Inputs[0].(CoinbaseInput).Payload))

	params.Height = 2
	params.ExtraNonce = 0
	h2, err := BuildCoinbase(params)
	require.NoError(t, err)
	assert.NotEqual(t, h1.ID, h2.ID)
}

func TestBuildCoinbase_CopiesParams(t *testing.T) {
	payload := []byte{0x01, 0x02}
	script := []byte{0x51}
	cb, err := BuildCoinbase(CoinbaseParams{Payload: payload, Subsidy: 1, RewardScript: script})
	require.NoError(t, err)

	payload[0] = 0xff
	script[0] = 0xff
	assert.Equal(t, []byte{0x01, 0x02}, cb.Inputs[0].(CoinbaseInput).Payload)
	assert.Equal(t, []byte{0x51}, cb.Outputs[0].ScriptPubKey)
}

func TestBuildCoinbase_EmptyRewardScript(t *testing.T) {
	_, err := BuildCoinbase(CoinbaseParams{Subsidy: 1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

// --- Record decoding tests ---

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		declared string
		wantID   string
	}{
		{"with txid", recordA, "declared-a", idA},
		{"without txid", recordB, "", idB},
		{"keys in any order", recordC, "", idC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.record))
			require.NoError(t, err)
			assert.Equal(t, tt.declared, rec.DeclaredID)
			assert.Equal(t, chainhash.Hash{}, rec.Tx.ID)
			assert.Equal(t, tt.wantID, block.HashHex(rec.Tx.Finalize()))
			assert.NoError(t, ValidateCandidate(rec.Tx))
		})
	}
}

func TestDecodeRecord_CanonicalRoundTrip(t *testing.T) {
	cb := testCoinbase(t, 7)
	rec, err := DecodeRecord(cb.Serialize())
	require.NoError(t, err)
	assert.Equal(t, cb.ID, rec.Tx.Finalize())
	assert.True(t, rec.Tx.IsCoinbase())
}

func TestDecodeRecord_UnknownKeysIgnored(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"version":2,"locktime":0,"vin":[{"prevout":{"value":100,"scriptpubkey":"00"},"txid":"x","vout":0}],"vout":[{"value":90,"scriptPubKey":"51","scriptpubkey_type":"p2pk"}]}`))
	require.NoError(t, err)
	assert.Equal(t, idA, block.HashHex(rec.Tx.Finalize()))
}

func TestDecodeRecord_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"not json", `not json`},
		{"null", `null`},
		{"array", `[]`},
		{"missing vout", `{"vin":[{"prevout":{"value":100}}]}`},
		{"missing vin", `{"vout":[{"value":1,"scriptPubKey":"51"}]}`},
		{"vin not a list", `{"vin":{},"vout":[]}`},
		{"txid not a string", `{"txid":5,"vin":[],"vout":[]}`},
		{"input not an object", `{"vin":[5],"vout":[]}`},
		{"input without kind", `{"vin":[{}],"vout":[]}`},
		{"input with both kinds", `{"vin":[{"prevout":{"value":1},"coinbase":"00","sequence":1}],"vout":[]}`},
		{"prevout without value", `{"vin":[{"prevout":{}}],"vout":[]}`},
		{"null prevout", `{"vin":[{"prevout":null}],"vout":[]}`},
		{"null output", `{"vin":[],"vout":[null]}`},
		{"negative value", `{"vin":[{"prevout":{"value":-1}}],"vout":[]}`},
		{"fractional value", `{"vin":[{"prevout":{"value":1.5}}],"vout":[]}`},
		{"string value", `{"vin":[{"prevout":{"value":"100"}}],"vout":[]}`},
		{"output without value", `{"vin":[],"vout":[{"scriptPubKey":"51"}]}`},
		{"output without script", `{"vin":[],"vout":[{"value":1}]}`},
		{"output script not hex", `{"vin":[],"vout":[{"value":1,"scriptPubKey":"zz"}]}`},
		{"coinbase without sequence", `{"vin":[{"coinbase":"00"}],"vout":[]}`},
		{"coinbase payload not hex", `{"vin":[{"coinbase":"xyz","sequence":1}],"vout":[]}`},
		{"sequence out of range", `{"vin":[{"coinbase":"00","sequence":4294967296}],"vout":[]}`},
		{"null prevout value", `{"vin":[{"prevout":{"value":null}}],"vout":[]}`},
		{"null output value", `{"vin":[{"prevout":{"value":5}}],"vout":[{"value":null,"scriptPubKey":"51"}]}`},
		{"null output script", `{"vin":[{"prevout":{"value":5}}],"vout":[{"value":1,"scriptPubKey":null}]}`},
		{"null coinbase payload", `{"vin":[{"coinbase":null,"sequence":1}],"vout":[]}`},
		{"null sequence", `{"vin":[{"coinbase":"00","sequence":null}],"vout":[]}`},
		{"trailing garbage", recordA + ` trailing`},
		{"second record", recordA + recordB},
		{"trailing brace", recordA + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(tt.record))
			assert.ErrorIs(t, err, ErrMalformedTransaction)
		})
	}
}

func TestDecodeRecord_EmptyListsDecodeButFailValidation(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"vin":[],"vout":[]}`))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(rec.Tx), ErrMalformedTransaction)
}
