package blockchain

import (
	"testing"

	"github.com/kilimba/tinychain/wallet"
	"github.com/stretchr/testify/require"
)

func TestCoinbaseTxIsCoinbase(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)
	require.True(t, tx.IsCoinbase())
	require.NotEmpty(t, tx.ID)
}

func TestCoinbaseTxDefaultsData(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)
	require.Contains(t, string(tx.Inputs[0].PubKey), "1111111111111111111114oLvT2")
}

func TestTrimmedCopyClearsSignatureAndPubKey(t *testing.T) {
	tx := &Transaction{
		Inputs: []TxInput{{PrevTxID: []byte("prev"), PrevOutIndex: 0, Signature: []byte("sig"), PubKey: []byte("pub")}},
	}
	trimmed := tx.TrimmedCopy()
	require.Nil(t, trimmed.Inputs[0].Signature)
	require.Nil(t, trimmed.Inputs[0].PubKey)
	require.Equal(t, tx.Inputs[0].PrevTxID, trimmed.Inputs[0].PrevTxID)
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	senderWallet := wallet.NewWallet()
	prevTx, err := CoinbaseTx(senderWallet.Address(), "")
	require.NoError(t, err)

	out, err := NewTXOutput(5, "1111111111111111111114oLvT2")
	require.NoError(t, err)

	tx := &Transaction{
		Inputs:  []TxInput{{PrevTxID: prevTx.ID, PrevOutIndex: 0, PubKey: senderWallet.PublicKey}},
		Outputs: []TxOutput{*out},
	}
	tx.SetID()

	prevTXs := map[string]*Transaction{string(prevTx.ID): prevTx}
	require.NoError(t, tx.Sign(senderWallet.PrivateKey, prevTXs))

	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	senderWallet := wallet.NewWallet()
	prevTx, err := CoinbaseTx(senderWallet.Address(), "")
	require.NoError(t, err)

	out, err := NewTXOutput(5, "1111111111111111111114oLvT2")
	require.NoError(t, err)

	tx := &Transaction{
		Inputs:  []TxInput{{PrevTxID: prevTx.ID, PrevOutIndex: 0, PubKey: senderWallet.PublicKey}},
		Outputs: []TxOutput{*out},
	}
	tx.SetID()

	prevTXs := map[string]*Transaction{string(prevTx.ID): prevTx}
	require.NoError(t, tx.Sign(senderWallet.PrivateKey, prevTXs))

	tx.Inputs[0].Signature[0] ^= 0xFF
	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyCoinbaseAlwaysTrue(t *testing.T) {
	tx, err := CoinbaseTx("1111111111111111111114oLvT2", "")
	require.NoError(t, err)
	ok, err := tx.Verify(nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignUnknownPrevTxErrors(t *testing.T) {
	senderWallet := wallet.NewWallet()
	tx := &Transaction{
		Inputs:  []TxInput{{PrevTxID: []byte("missing"), PrevOutIndex: 0, PubKey: senderWallet.PublicKey}},
		Outputs: []TxOutput{{Value: 1}},
	}
	err := tx.Sign(senderWallet.PrivateKey, map[string]*Transaction{})
	require.ErrorIs(t, err, ErrUnknownPrevTx)
}
