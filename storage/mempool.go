package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bitfsorg/libminer-go/mining"
	"github.com/bitfsorg/libminer-go/tx"
)

// LoadMempool reads every regular file in dir as one JSON transaction record.
//
// Files are returned in lexical name order, which fixes the transaction order
// of the block and therefore its Merkle root. A record that fails to decode
// becomes a Candidate with Err set; a file that cannot be read aborts the load
// with ErrIOFailure. Hidden files and subdirectories are skipped.
func LoadMempool(dir string) ([]mining.Candidate, error) {
	if dir == "" {
		return nil, ErrInvalidBaseDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read mempool %s: %w", ErrIOFailure, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	candidates := make([]mining.Candidate, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrIOFailure, path, err)
		}

		c := mining.Candidate{Source: name}
		c.Record, c.Err = tx.DecodeRecord(data)
		candidates = append(candidates, c)
	}

	return candidates, nil
}
