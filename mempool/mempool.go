// Package mempool holds transactions a node has accepted but not yet
// mined into a block.
package mempool

import (
	"sync"

	"github.com/kilimba/tinychain/blockchain"
)

// Pool is a thread-safe set of pending transactions keyed by ID.
// Grounded on the teacher's network.memoryPool map, which the same
// package mutated from multiple goroutines (HandleTx, the mining loop)
// without a lock — a data race this type closes by constraining all
// access behind mu.
type Pool struct {
	mu  sync.Mutex
	txs map[string]*blockchain.Transaction
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{txs: make(map[string]*blockchain.Transaction)}
}

// Insert adds tx to the pool, keyed by its ID. A transaction already
// present is overwritten.
func (p *Pool) Insert(tx *blockchain.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs[string(tx.ID)] = tx
}

// Get returns the pending transaction with the given ID, if any.
func (p *Pool) Get(id []byte) (*blockchain.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.txs[string(id)]
	return tx, ok
}

// Contains reports whether a transaction with the given ID is pending.
func (p *Pool) Contains(id []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.txs[string(id)]
	return ok
}

// Remove drops a transaction from the pool, e.g. once it has been mined.
func (p *Pool) Remove(id []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs, string(id))
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

// TakeAll returns every pending transaction and empties the pool. Used by
// the miner loop to atomically claim a batch to mine.
func (p *Pool) TakeAll() []*blockchain.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := make([]*blockchain.Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		txs = append(txs, tx)
	}
	p.txs = make(map[string]*blockchain.Transaction)
	return txs
}
