package storage

import "github.com/bsv-blockchain/go-sdk/chainhash"

// Store is a content-addressed archive of canonical transaction bodies.
// Keys are transaction identifiers, DoubleDigest(body).
type Store interface {
	// Put stores a canonical body under its identifier.
	Put(txID chainhash.Hash, body []byte) error

	// Get retrieves a body by identifier.
	Get(txID chainhash.Hash) ([]byte, error)

	// Has checks if a body exists for the given identifier.
	Has(txID chainhash.Hash) (bool, error)

	// Delete removes a body by identifier.
	Delete(txID chainhash.Hash) error

	// Size returns the size in bytes of a stored body.
	Size(txID chainhash.Hash) (int64, error)

	// List returns all stored identifiers.
	List() ([]chainhash.Hash, error)
}
