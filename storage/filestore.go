package storage

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libminer-go/block"
)

// FileStore implements Store using the local filesystem.
// Files are stored at: {baseDir}/{hex(txID[:1])}/{hex(txID)}
// The first byte (2 hex chars) is used as a subdirectory for sharding.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a new file-based transaction archive.
// baseDir is typically "~/.libminer/txs". The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &FileStore{
		baseDir: baseDir,
	}, nil
}

// TxIDToPath converts a transaction identifier to its filesystem path.
// Uses first byte as subdirectory for sharding: {base}/{ab}/{abcdef...}
func TxIDToPath(baseDir string, txID chainhash.Hash) string {
	hexID := block.HashHex(txID)
	return filepath.Join(baseDir, hexID[:2], hexID)
}

func (fs *FileStore) shardDir(txID chainhash.Hash) string {
	return filepath.Dir(fs.filePath(txID))
}

func (fs *FileStore) filePath(txID chainhash.Hash) string {
	return TxIDToPath(fs.baseDir, txID)
}

// Put stores a canonical body indexed by txID. Writing the same body twice
// is not an error.
func (fs *FileStore) Put(txID chainhash.Hash, body []byte) error {
	if len(body) == 0 {
		return ErrEmptyContent
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.shardDir(txID), 0700); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	if err := os.WriteFile(fs.filePath(txID), body, 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}

// Get retrieves a body by txID.
func (fs *FileStore) Get(txID chainhash.Hash) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.filePath(txID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return data, nil
}

// Has checks if a body exists for txID.
func (fs *FileStore) Has(txID chainhash.Hash) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := os.Stat(fs.filePath(txID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return true, nil
}

// Delete removes a body by txID.
func (fs *FileStore) Delete(txID chainhash.Hash) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.filePath(txID))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}

// Size returns the size in bytes of the body stored for txID.
func (fs *FileStore) Size(txID chainhash.Hash) (int64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, err := os.Stat(fs.filePath(txID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return info.Size(), nil
}

// List returns all stored identifiers by scanning the shard directories.
func (fs *FileStore) List() ([]chainhash.Hash, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	var result []chainhash.Hash
	for _, entry := range entries {
		// Shard directories are 2-character hex strings
		if !entry.IsDir() || len(entry.Name()) != 2 {
			continue
		}

		files, err := os.ReadDir(filepath.Join(fs.baseDir, entry.Name()))
		if err != nil {
			continue
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			raw, err := hex.DecodeString(f.Name())
			if err != nil || len(raw) != chainhash.HashSize {
				continue // not an archive entry
			}
			var id chainhash.Hash
			copy(id[:], raw)
			result = append(result, id)
		}
	}

	return result, nil
}
