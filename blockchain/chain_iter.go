package blockchain

import "github.com/kilimba/tinychain/store"

// Iter walks the chain from the tip back to genesis, one block per Next
// call. Grounded on the teacher's Iterator, generalized from a raw
// badger handle to the store.Store façade.
type Iter struct {
	currentHash []byte
	st          store.Store
}

// Iterator starts a new walk from the current tip. It does not take
// Chain's internal lock itself, so it is safe to call from a method that
// already holds it (MineBlock's verification pass does); callers outside
// such a context get a consistent-enough snapshot since lastHash only
// ever advances.
func (c *Chain) Iterator() *Iter {
	return &Iter{currentHash: c.lastHash, st: c.st}
}

// Next returns the next block walking backward toward genesis, or nil
// once the genesis block (PrevHash == nil/empty) has been returned.
func (it *Iter) Next() (*Block, error) {
	if len(it.currentHash) == 0 {
		return nil, nil
	}

	data, ok, err := it.st.Get(store.BucketBlocks, it.currentHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidBlock
	}

	block, err := DeserializeBlock(data)
	if err != nil {
		return nil, err
	}

	it.currentHash = block.PrevHash
	return block, nil
}
