// Package store is the ordered byte-keyed persistence façade described in
// spec.md §4.A / §6. It owns bucket namespacing (blocks, chainstate,
// utxos, wallets) so callers never build prefixed keys themselves — that
// job used to be repeated ad hoc at every call site in the teacher repo
// (the "utxo-" prefix in its utxo.go); here it is the façade's job once.
package store

import "errors"

// ErrIO wraps a failure from the underlying backing store. Per spec.md
// §7, I/O errors are fatal to whatever command or handler triggered them.
var ErrIO = errors.New("store: i/o error")

// Well-known buckets (spec.md §6).
const (
	BucketBlocks     = "blocks"
	BucketChainstate = "chainstate"
	BucketUTXOs      = "utxos"
	BucketWallets    = "wallets"
)

// Iterator walks a bucket's entries in key order. A single Iterator holds
// a consistent snapshot for its entire lifetime (spec.md §4.A), so callers
// must Close it when done to release the underlying read transaction.
type Iterator interface {
	// Next advances to the next entry, returning false when exhausted.
	Next() bool
	// Key returns the current entry's key with the bucket prefix stripped.
	Key() []byte
	// Value returns the current entry's value.
	Value() ([]byte, error)
	// Close releases resources held by the iterator.
	Close()
}

// Store is the façade every other component depends on. Exactly one
// implementation exists (BadgerStore); the interface exists so chain,
// wallet, and UTXO-set code stay decoupled from the specific backing
// engine, matching spec.md §6's external-collaborator framing.
type Store interface {
	Get(bucket string, key []byte) ([]byte, bool, error)
	Put(bucket string, key []byte, value []byte) error
	Delete(bucket string, key []byte) error
	Scan(bucket string) (Iterator, error)
	Clear(bucket string) error
	Close() error
}
