package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/blockstore"
	"github.com/bitfsorg/libminer-go/config"
	"github.com/bitfsorg/libminer-go/logging"
	"github.com/bitfsorg/libminer-go/storage"
)

const (
	recordA = `{"txid":"declared-a","vin":[{"prevout":{"value":100}}],"vout":[{"value":90,"scriptPubKey":"51"}]}`
	recordB = `{"vin":[{"prevout":{"value":60}},{"prevout":{"value":40}}],"vout":[{"value":100,"scriptPubKey":"52"}]}`
	recordC = `{"vin":[{"prevout":{"value":1000}}],"vout":[{"value":500,"scriptPubKey":"53"},{"value":400,"scriptPubKey":"54"}]}`

	rootAll   = "ebff97c60cb0c4016dfb589e2317231bd9e0cf37cfcf8810ae8cb3291162309f"
	firstHash = "0db3ad87912c842cdcad322a8e46d25cdc0a57365714b9d2f1003d1bde722ad0"

	testTimestamp uint32 = 1700000000
)

// --- Helper functions ---

// testSetup writes a three-transaction mempool and returns a configuration
// that mines it with an easy target inside a temporary directory.
func testSetup(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	pool := filepath.Join(dir, "mempool")
	require.NoError(t, os.MkdirAll(pool, 0700))
	for name, rec := range map[string]string{"a.json": recordA, "b.json": recordB, "c.json": recordC} {
		require.NoError(t, os.WriteFile(filepath.Join(pool, name), []byte(rec), 0600))
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.MempoolDir = pool
	cfg.ReportPath = filepath.Join(dir, "output.txt")
	cfg.DifficultyTarget = "0fff" + strings.Repeat("f", 60)
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

// runOnce mines with cfg and returns the report and the log output.
func runOnce(t *testing.T, opts *configFlags, cfg config.Config) (string, string) {
	t.Helper()
	var logs bytes.Buffer
	log, err := logging.New(logging.Config{Level: "debug", Output: &logs})
	require.NoError(t, err)

	if opts.Timestamp == 0 {
		opts.Timestamp = testTimestamp
	}
	require.NoError(t, run(context.Background(), opts, cfg, log))

	data, err := os.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	return string(data), logs.String()
}

// openStore opens the block store a previous run left behind.
func openStore(t *testing.T, cfg config.Config) *blockstore.BoltStore {
	t.Helper()
	s, err := blockstore.OpenBoltStore(filepath.Join(cfg.DataDir, "blocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// --- run tests ---

func TestRun_NoStoreIsIdempotent(t *testing.T) {
	cfg := testSetup(t)

	first, _ := runOnce(t, &configFlags{NoStore: true}, cfg)
	second, _ := runOnce(t, &configFlags{NoStore: true}, cfg)

	assert.Equal(t, first, second)
	assert.Contains(t, first, `"merkle_root": "`+rootAll+`"`)
	assert.Contains(t, first, `"nonce": 23`)
	assert.Contains(t, first, firstHash)

	_, err := os.Stat(filepath.Join(cfg.DataDir, "blocks.db"))
	assert.True(t, os.IsNotExist(err), "no block store is created")
}

func TestRun_StoreRerunIsIdempotent(t *testing.T) {
	cfg := testSetup(t)

	first, _ := runOnce(t, &configFlags{}, cfg)
	second, logs := runOnce(t, &configFlags{}, cfg)

	assert.Equal(t, first, second)
	assert.Contains(t, second, firstHash)
	assert.Contains(t, logs, "Block already stored")

	s := openStore(t, cfg)
	count, err := s.GetBlockCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	tip, err := s.GetTip()
	require.NoError(t, err)
	assert.Equal(t, firstHash, block.HashHex(tip.Header.Hash))

	archive, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "txs"))
	require.NoError(t, err)
	for _, id := range tip.TxIDs {
		ok, err := archive.Has(id)
		require.NoError(t, err)
		assert.True(t, ok, "transaction %s archived", block.HashHex(id))
	}
}

func TestRun_ExtendTip(t *testing.T) {
	cfg := testSetup(t)
	runOnce(t, &configFlags{}, cfg)

	cfg.ExtendTip = true
	report, _ := runOnce(t, &configFlags{}, cfg)
	assert.Contains(t, report, `"previous_block_hash": "`+firstHash+`"`)

	// Mining without --extendtip again reproduces the first block.
	cfg.ExtendTip = false
	again, logs := runOnce(t, &configFlags{}, cfg)
	assert.Contains(t, again, firstHash)
	assert.Contains(t, logs, "Block already stored")

	s := openStore(t, cfg)
	count, err := s.GetBlockCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
	require.NoError(t, blockstore.VerifyChain(s))

	genesis, err := s.GetBlockByHeight(0)
	require.NoError(t, err)
	next, err := s.GetBlockByHeight(1)
	require.NoError(t, err)
	assert.Equal(t, genesis.Header.Hash, next.Header.PrevBlock)

	// Each block gets its own coinbase, so both stay locatable.
	require.NotEqual(t, genesis.TxIDs[0], next.TxIDs[0])
	for height, b := range []*blockstore.StoredBlock{genesis, next} {
		stx, err := s.GetTx(b.TxIDs[0])
		require.NoError(t, err)
		assert.Equal(t, uint32(height), stx.Height)
		assert.NoError(t, blockstore.VerifyTx(s, b.TxIDs[0]))
	}
}

func TestRun_ExtendTipOnEmptyStore(t *testing.T) {
	cfg := testSetup(t)
	cfg.ExtendTip = true

	report, logs := runOnce(t, &configFlags{}, cfg)
	assert.Contains(t, report, firstHash)
	assert.Contains(t, logs, "Block store is empty")
}

func TestRun_ExtendTipNeedsStore(t *testing.T) {
	cfg := testSetup(t)
	cfg.ExtendTip = true

	err := run(context.Background(), &configFlags{NoStore: true, Timestamp: testTimestamp}, cfg, logging.Discard())
	assert.ErrorIs(t, err, errExtendTipNoStore)

	_, err = os.Stat(cfg.ReportPath)
	assert.True(t, os.IsNotExist(err), "nothing is mined")
}

func TestRun_ForeignPrevBlockNotStored(t *testing.T) {
	cfg := testSetup(t)
	runOnce(t, &configFlags{}, cfg)

	cfg.PrevBlock = strings.Repeat("11", 32)
	report, logs := runOnce(t, &configFlags{}, cfg)
	assert.Contains(t, report, `"previous_block_hash": "`+cfg.PrevBlock+`"`)
	assert.Contains(t, logs, "does not extend the stored chain")

	s := openStore(t, cfg)
	count, err := s.GetBlockCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
