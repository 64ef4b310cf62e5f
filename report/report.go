// Package report renders a mined block as the plain-text report consumed by
// downstream graders and humans.
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitfsorg/libminer-go/block"
	"github.com/bitfsorg/libminer-go/mining"
)

// ErrNilBlock indicates Write was called without a block.
var ErrNilBlock = errors.New("report: block is nil")

// headerJSON fixes the key order of the header section.
type headerJSON struct {
	Version           uint32 `json:"version"`
	PreviousBlockHash string `json:"previous_block_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Timestamp         uint32 `json:"timestamp"`
	DifficultyTarget  string `json:"difficulty_target"`
	Nonce             uint32 `json:"nonce"`
}

// Write renders b:
//
//	Block Header:
//	{ ...indented JSON... }
//
//	Block Hash:
//	<hash>
//
//	Serialized Coinbase Transaction:
//	<canonical serialization>
//
//	Transaction IDs:
//	<coinbase txid>
//	<txid>...
//
// followed by a "Rejected Transactions:" section when any candidate was
// left out.
func Write(w io.Writer, b *mining.Block) error {
	if b == nil {
		return ErrNilBlock
	}

	hdr, err := json.MarshalIndent(headerJSON{
		Version:           b.Header.Version,
		PreviousBlockHash: block.HashHex(b.Header.PrevBlock),
		MerkleRoot:        block.HashHex(b.Header.MerkleRoot),
		Timestamp:         b.Header.Timestamp,
		DifficultyTarget:  b.Header.Target.String(),
		Nonce:             b.Header.Nonce,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode header: %w", err)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Block Header:\n%s\n", hdr)
	fmt.Fprintf(bw, "\nBlock Hash:\n%s\n", b.HashHex())
	fmt.Fprintf(bw, "\nSerialized Coinbase Transaction:\n%s\n", b.Coinbase.Serialize())

	bw.WriteString("\nTransaction IDs:\n")
	for _, id := range b.TxIDHexes() {
		bw.WriteString(id)
		bw.WriteByte('\n')
	}

	if len(b.Rejections) > 0 {
		bw.WriteString("\nRejected Transactions:\n")
		for _, r := range b.Rejections {
			fmt.Fprintf(bw, "%s: %v\n", r.Source, r.Err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// WriteFile writes the report to path. The file is replaced atomically.
func WriteFile(path string, b *mining.Block) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("report: create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmp := f.Name()

	if err := Write(f, b); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: close: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: chmod: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}
