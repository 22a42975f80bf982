package blockchain

import (
	"math"
	"math/big"

	"github.com/kilimba/tinychain/cryptoutil"
)

// targetBits is the compile-time difficulty constant spec.md §3
// suggests (8). There is no retargeting (spec.md §1 Non-goals); this is
// the only knob, and it's overridable in tests by constructing a
// ProofOfWork with a custom target directly.
const targetBits = 8

// ProofOfWork mines or validates a block against the difficulty target.
// Grounded on the teacher's proof.go; the only behavioral choice spec.md
// §9 leaves open — leading-zero bits vs bytes — is resolved here as bits,
// by comparing the hash as a big-endian integer against
// 1 << (256 - targetBits), exactly as the teacher does.
type ProofOfWork struct {
	Block  *Block
	Target *big.Int
}

// NewProof builds the target 1<<(256-targetBits) for b.
func NewProof(b *Block) *ProofOfWork {
	target := big.NewInt(1)
	target.Lsh(target, uint(256-targetBits))
	return &ProofOfWork{Block: b, Target: target}
}

// Run iterates nonces until the block's header hash satisfies the target,
// returning the winning nonce and hash.
func (pow *ProofOfWork) Run() (int64, []byte) {
	var intHash big.Int
	var hash [32]byte

	var nonce int64
	for nonce < math.MaxInt64 {
		data := pow.Block.headerBytes(nonce)
		hash = cryptoutil.Sha256(data)
		intHash.SetBytes(hash[:])

		if intHash.Cmp(pow.Target) == -1 {
			break
		}
		nonce++
	}
	return nonce, hash[:]
}

// Validate recomputes the header hash using the block's stored nonce and
// checks it against the target and the block's own recorded hash.
func (pow *ProofOfWork) Validate() bool {
	data := pow.Block.headerBytes(pow.Block.Nonce)
	hash := cryptoutil.Sha256(data)

	if string(hash[:]) != string(pow.Block.Hash) {
		return false
	}

	var intHash big.Int
	intHash.SetBytes(hash[:])
	return intHash.Cmp(pow.Target) == -1
}
