package blockchain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleBlock() *Block {
	tx, _ := CoinbaseTx("1111111111111111111114oLvT2", "test")
	return NewBlock(1700000000, []*Transaction{tx}, []byte("prevhash"), 1)
}

func TestNewProofTargetIsLeadingZeroBits(t *testing.T) {
	b := &Block{}
	pow := NewProof(b)

	want := big.NewInt(1)
	want.Lsh(want, uint(256-targetBits))
	require.Equal(t, 0, want.Cmp(pow.Target))
}

func TestRunProducesValidatableBlock(t *testing.T) {
	b := sampleBlock()
	require.True(t, NewProof(b).Validate())
}

func TestValidateFailsOnTamperedNonce(t *testing.T) {
	b := sampleBlock()
	b.Nonce++
	require.False(t, NewProof(b).Validate())
}

func TestValidateFailsOnTamperedHash(t *testing.T) {
	b := sampleBlock()
	b.Hash[0] ^= 0xFF
	require.False(t, NewProof(b).Validate())
}
