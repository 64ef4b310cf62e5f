package blockstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"go.etcd.io/bbolt"
)

var (
	bucketBlocks       = []byte("blocks")
	bucketBlocksHeight = []byte("blocks_height")
	bucketTxs          = []byte("txs")
)

// BoltStore is a Store backed by a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("blockstore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("blockstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBlocks, bucketBlocksHeight, bucketTxs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blockstore: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// heightKey encodes a block height as a 4-byte big-endian key for sorted storage.
func heightKey(h uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, h)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// tip returns the block at the greatest height, or nil when the store is empty.
func tip(tx *bbolt.Tx) (*StoredBlock, error) {
	_, hash := tx.Bucket(bucketBlocksHeight).Cursor().Last()
	if hash == nil {
		return nil, nil
	}
	return getBlock(tx, hash)
}

func getBlock(tx *bbolt.Tx, hash []byte) (*StoredBlock, error) {
	data := tx.Bucket(bucketBlocks).Get(hash)
	if data == nil {
		return nil, ErrBlockNotFound
	}
	var b StoredBlock
	if err := decodeGob(data, &b); err != nil {
		return nil, fmt.Errorf("blockstore: decode block: %w", err)
	}
	return &b, nil
}

// PutBlock stores a block on top of the tip, keyed by hash and height, and
// indexes each of its transactions with a Merkle proof. A transaction already
// indexed by an earlier block keeps its first location.
func (s *BoltStore) PutBlock(b *StoredBlock) error {
	if b == nil {
		return fmt.Errorf("%w: block", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		blocks := tx.Bucket(bucketBlocks)
		if blocks.Get(b.Header.Hash[:]) != nil {
			return ErrDuplicateBlock
		}

		t, err := tip(tx)
		if err != nil {
			return err
		}
		height, err := checkBlock(b, t)
		if err != nil {
			return err
		}

		b.Height = height
		data, err := encodeGob(b)
		if err != nil {
			return fmt.Errorf("encode block: %w", err)
		}
		if err := blocks.Put(b.Header.Hash[:], data); err != nil {
			return fmt.Errorf("blockstore: put block by hash: %w", err)
		}
		if err := tx.Bucket(bucketBlocksHeight).Put(heightKey(height), b.Header.Hash[:]); err != nil {
			return fmt.Errorf("blockstore: put block by height: %w", err)
		}

		entries, err := txEntries(b)
		if err != nil {
			return err
		}
		txs := tx.Bucket(bucketTxs)
		for _, e := range entries {
			if txs.Get(e.TxID[:]) != nil {
				continue
			}
			data, err := encodeGob(e)
			if err != nil {
				return fmt.Errorf("encode tx: %w", err)
			}
			if err := txs.Put(e.TxID[:], data); err != nil {
				return fmt.Errorf("blockstore: put tx: %w", err)
			}
		}
		return nil
	})
}

// GetBlock retrieves a block by hash.
func (s *BoltStore) GetBlock(hash chainhash.Hash) (*StoredBlock, error) {
	var b *StoredBlock
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		b, err = getBlock(tx, hash[:])
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBlockByHeight retrieves a block by height.
func (s *BoltStore) GetBlockByHeight(height uint32) (*StoredBlock, error) {
	var b *StoredBlock
	err := s.db.View(func(tx *bbolt.Tx) error {
		hash := tx.Bucket(bucketBlocksHeight).Get(heightKey(height))
		if hash == nil {
			return ErrBlockNotFound
		}
		var err error
		b, err = getBlock(tx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetTip returns the block with the greatest height.
func (s *BoltStore) GetTip() (*StoredBlock, error) {
	var b *StoredBlock
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		b, err = tip(tx)
		if err == nil && b == nil {
			return ErrBlockNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBlockCount returns the total number of stored blocks.
func (s *BoltStore) GetBlockCount() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketBlocks).Stats().KeyN)
		return nil
	})
	return count, err
}

// GetTx retrieves a transaction's location and proof.
func (s *BoltStore) GetTx(txID chainhash.Hash) (*StoredTx, error) {
	var stx StoredTx
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTxs).Get(txID[:])
		if data == nil {
			return ErrTxNotFound
		}
		if err := decodeGob(data, &stx); err != nil {
			return fmt.Errorf("blockstore: decode tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stx, nil
}
