package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
)

// Block is spec.md §3's block: a timestamp, the transactions it commits,
// a link to its predecessor, its own hash, the nonce that satisfies
// proof-of-work, and its height. Grounded on the teacher's block.go,
// widened with Timestamp/int64 Nonce/Height per spec.md §3 (the teacher's
// snapshot predates Timestamp and used platform int for Nonce/Height).
type Block struct {
	Timestamp    int64
	Transactions []*Transaction
	PrevHash     []byte
	Hash         []byte
	Nonce        int64
	Height       int64
}

// txHashes returns the hash of every transaction in the block, the leaf
// inputs to MerkleRoot.
func (b *Block) txHashes() [][]byte {
	hashes := make([][]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// headerBytes assembles the bytes proof-of-work hashes:
// timestamp || prev_hash || merkle_root || target_bits || nonce.
// It does not mutate b; ProofOfWork.Run calls it once per candidate nonce.
func (b *Block) headerBytes(nonce int64) []byte {
	merkle := MerkleRoot(b.txHashes())
	var buf bytes.Buffer
	buf.Write(toBigEndian(b.Timestamp))
	buf.Write(b.PrevHash)
	buf.Write(merkle)
	buf.Write(toBigEndian(int64(targetBits)))
	buf.Write(toBigEndian(nonce))
	return buf.Bytes()
}

// NewBlock constructs and mines a block. timestamp is passed in (rather
// than read from the system clock here) so callers and tests control it
// explicitly, matching this codebase's avoidance of hidden ambient state
// (spec.md §9).
func NewBlock(timestamp int64, txs []*Transaction, prevHash []byte, height int64) *Block {
	b := &Block{
		Timestamp:    timestamp,
		Transactions: txs,
		PrevHash:     prevHash,
		Height:       height,
	}
	pow := NewProof(b)
	nonce, hash := pow.Run()
	b.Nonce = nonce
	b.Hash = hash
	return b
}

// Genesis builds height-0 with a single coinbase transaction, grounded on
// the teacher's Genesis(cbTXN).
func Genesis(coinbase *Transaction, timestamp int64) *Block {
	return NewBlock(timestamp, []*Transaction{coinbase}, []byte{}, 0)
}

// Serialize gob-encodes the block for storage, grounded on the teacher's
// Block.Serialize.
func (b *Block) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return buf.Bytes(), nil
}

// DeserializeBlock reverses Serialize, grounded on the teacher's
// Deserialize.
func DeserializeBlock(data []byte) (*Block, error) {
	var b Block
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &b, nil
}

func toBigEndian(n int64) []byte {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	return buf
}
