package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlockIsValidProofOfWork(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)

	b := NewBlock(1700000000, []*Transaction{tx}, []byte("prev"), 3)
	require.Equal(t, int64(3), b.Height)
	require.True(t, NewProof(b).Validate())
}

func TestGenesisHasZeroHeightAndEmptyPrevHash(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)

	g := Genesis(tx, 1700000000)
	require.Equal(t, int64(0), g.Height)
	require.Empty(t, g.PrevHash)
}

func TestBlockSerializeRoundTrip(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)

	b := NewBlock(1700000000, []*Transaction{tx}, []byte("prev"), 1)
	data, err := b.Serialize()
	require.NoError(t, err)

	decoded, err := DeserializeBlock(data)
	require.NoError(t, err)
	require.Equal(t, b.Hash, decoded.Hash)
	require.Equal(t, b.Height, decoded.Height)
	require.Equal(t, b.Nonce, decoded.Nonce)
	require.Len(t, decoded.Transactions, 1)
}

func TestHeaderBytesChangesWithNonce(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)

	b := NewBlock(1700000000, []*Transaction{tx}, []byte("prev"), 1)
	require.NotEqual(t, b.headerBytes(0), b.headerBytes(1))
}
