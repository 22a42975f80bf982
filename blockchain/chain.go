package blockchain

import (
	"bytes"
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/kilimba/tinychain/store"
)

// lastHashKey is the chainstate bucket's pointer to the tip of the chain,
// grounded on the teacher's "lh" key in blockchain.go.
var lastHashKey = []byte("lh")

// Chain is the node's single, consolidated view of the ledger: an
// append-only sequence of blocks backed by store.Store, serialized by
// mu against concurrent writers (the p2p server and the CLI both append
// blocks). Grounded on the teacher's BlockChain, but the teacher's
// snapshot declared two incompatible chain types (main.go's toy
// Blockchain and blockchain.go's BlockChain, the latter referenced by
// utxo.go under the wrong name) — Chain replaces both with one type,
// per DESIGN.md.
type Chain struct {
	mu       sync.Mutex
	st       store.Store
	lastHash []byte
}

// CreateChain initializes a fresh chain with a genesis block rewarding
// minerAddress, failing if one already exists. Grounded on the teacher's
// InitBlockChain.
func CreateChain(minerAddress string, st store.Store) (*Chain, error) {
	if _, ok, err := st.Get(store.BucketChainstate, lastHashKey); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}

	cbtx, err := CoinbaseTx(minerAddress, "")
	if err != nil {
		return nil, err
	}
	genesis := Genesis(cbtx, time.Now().Unix())

	data, err := genesis.Serialize()
	if err != nil {
		return nil, err
	}
	if err := st.Put(store.BucketBlocks, genesis.Hash, data); err != nil {
		return nil, err
	}
	if err := st.Put(store.BucketChainstate, lastHashKey, genesis.Hash); err != nil {
		return nil, err
	}

	return &Chain{st: st, lastHash: genesis.Hash}, nil
}

// LoadChain opens an existing chain, failing if none has been created.
// Grounded on the teacher's ContinueBlockChain.
func LoadChain(st store.Store) (*Chain, error) {
	lastHash, ok, err := st.Get(store.BucketChainstate, lastHashKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return &Chain{st: st, lastHash: lastHash}, nil
}

// LastHash returns the tip hash of the chain.
func (c *Chain) LastHash() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := make([]byte, len(c.lastHash))
	copy(h, c.lastHash)
	return h
}

// GetBestHeight returns the height of the tip block, grounded on the
// teacher's BlockChain.GetBestHeight.
func (c *Chain) GetBestHeight() (int64, error) {
	tip, err := c.GetBlock(c.LastHash())
	if err != nil {
		return 0, err
	}
	return tip.Height, nil
}

// GetBlock fetches and decodes the block stored under hash.
func (c *Chain) GetBlock(hash []byte) (*Block, error) {
	data, ok, err := c.st.Get(store.BucketBlocks, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidBlock
	}
	return DeserializeBlock(data)
}

// GetBlockHashes returns every block hash in the chain, tip first,
// grounded on the teacher's BlockChain.GetBlockHashes.
func (c *Chain) GetBlockHashes() ([][]byte, error) {
	var hashes [][]byte
	it := c.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}
		hashes = append(hashes, block.Hash)
	}
	return hashes, nil
}

// MineBlock assembles and mines a new block over txs atop the current
// tip, verifying every non-coinbase transaction first. Grounded on the
// teacher's BlockChain.MineBlock.
func (c *Chain) MineBlock(txs []*Transaction) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tx := range txs {
		ok, err := c.verifyTransactionLocked(tx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBadSignature
		}
	}

	lastBlock, err := c.GetBlock(c.lastHash)
	if err != nil {
		return nil, err
	}

	newBlock := NewBlock(time.Now().Unix(), txs, c.lastHash, lastBlock.Height+1)

	data, err := newBlock.Serialize()
	if err != nil {
		return nil, err
	}
	if err := c.st.Put(store.BucketBlocks, newBlock.Hash, data); err != nil {
		return nil, err
	}
	if err := c.st.Put(store.BucketChainstate, lastHashKey, newBlock.Hash); err != nil {
		return nil, err
	}
	c.lastHash = newBlock.Hash

	return newBlock, nil
}

// AddBlock appends an externally mined block (received from a peer) to
// the chain. It is idempotent: re-adding a block already stored is a
// no-op success, and it only advances the tip pointer when b extends the
// current tip's height. Grounded on the teacher's BlockChain.AddBlock,
// generalized for the p2p layer (the teacher's version assumed only
// locally mined blocks).
func (c *Chain) AddBlock(b *Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok, err := c.st.Get(store.BucketBlocks, b.Hash); err != nil {
		return err
	} else if ok {
		return nil
	}

	if !NewProof(b).Validate() {
		return ErrInvalidBlock
	}

	data, err := b.Serialize()
	if err != nil {
		return err
	}
	if err := c.st.Put(store.BucketBlocks, b.Hash, data); err != nil {
		return err
	}

	lastBlock, err := c.GetBlock(c.lastHash)
	if err != nil {
		return err
	}
	if b.Height > lastBlock.Height {
		if err := c.st.Put(store.BucketChainstate, lastHashKey, b.Hash); err != nil {
			return err
		}
		c.lastHash = b.Hash
	}
	return nil
}

// FindTransaction walks the chain from the tip looking for a transaction
// with the given ID, grounded on the teacher's BlockChain.FindTransaction.
func (c *Chain) FindTransaction(id []byte) (*Transaction, error) {
	it := c.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}
		for _, tx := range block.Transactions {
			if bytes.Equal(tx.ID, id) {
				return tx, nil
			}
		}
	}
	return nil, ErrUnknownPrevTx
}

// SignTransaction resolves every input's previous transaction and signs
// tx with priv, grounded on the teacher's BlockChain.SignTransaction.
func (c *Chain) SignTransaction(tx *Transaction, priv ecdsa.PrivateKey) error {
	prevTXs, err := c.prevTransactions(tx)
	if err != nil {
		return err
	}
	return tx.Sign(priv, prevTXs)
}

// VerifyTransaction resolves every input's previous transaction and
// verifies tx's signatures, grounded on the teacher's
// BlockChain.VerifyTransaction.
func (c *Chain) VerifyTransaction(tx *Transaction) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyTransactionLocked(tx)
}

func (c *Chain) verifyTransactionLocked(tx *Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	prevTXs, err := c.prevTransactions(tx)
	if err != nil {
		return false, err
	}
	return tx.Verify(prevTXs)
}

func (c *Chain) prevTransactions(tx *Transaction) (map[string]*Transaction, error) {
	prevTXs := make(map[string]*Transaction)
	for _, in := range tx.Inputs {
		prevTx, err := c.FindTransaction(in.PrevTxID)
		if err != nil {
			return nil, err
		}
		prevTXs[string(prevTx.ID)] = prevTx
	}
	return prevTXs, nil
}
