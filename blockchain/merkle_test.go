package blockchain

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func leafHash(data string) []byte {
	h := sha256.Sum256([]byte(data))
	return h[:]
}

func TestMerkleRootSingleLeaf(t *testing.T) {
	leaf := leafHash("a")
	require.Equal(t, leaf, MerkleRoot([][]byte{leaf}))
}

func TestMerkleRootEvenLeaves(t *testing.T) {
	a, b := leafHash("a"), leafHash("b")
	expected := sha256.Sum256(append(append([]byte{}, a...), b...))
	require.Equal(t, expected[:], MerkleRoot([][]byte{a, b}))
}

func TestMerkleRootOddLeavesDuplicatesLast(t *testing.T) {
	a, b, c := leafHash("a"), leafHash("b"), leafHash("c")
	require.Equal(t, MerkleRoot([][]byte{a, b, c}), MerkleRoot([][]byte{a, b, c, c}))
}

func TestMerkleRootEmptyIsStable(t *testing.T) {
	expected := sha256.Sum256(nil)
	require.Equal(t, expected[:], MerkleRoot(nil))
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	a, b := leafHash("a"), leafHash("b")
	require.NotEqual(t, MerkleRoot([][]byte{a, b}), MerkleRoot([][]byte{b, a}))
}
