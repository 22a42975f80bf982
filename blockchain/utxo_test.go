package blockchain

import (
	"testing"

	"github.com/kilimba/tinychain/wallet"
	"github.com/stretchr/testify/require"
)

func TestReindexFindsGenesisCoinbase(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	require.NoError(t, utxoSet.Reindex())

	count, err := utxoSet.CountTransactions()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	utxos, err := utxoSet.FindUTXO(minerWallet.PubKeyHash())
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	require.EqualValues(t, subsidy, utxos[0].Value)
}

func TestFindSpendableOutputsAccumulatesUntilAmount(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	require.NoError(t, utxoSet.Reindex())

	acc, outs, err := utxoSet.FindSpendableOutputs(minerWallet.PubKeyHash(), 5)
	require.NoError(t, err)
	require.GreaterOrEqual(t, acc, int32(5))
	require.Len(t, outs, 1)
}

func TestUpdateRemovesSpentAndAddsNewOutputs(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	require.NoError(t, utxoSet.Reindex())

	genesis, err := chain.GetBlock(chain.LastHash())
	require.NoError(t, err)
	cbTx := genesis.Transactions[0]

	changeOut, err := NewTXOutput(subsidy, minerWallet.Address())
	require.NoError(t, err)
	spendTx := &Transaction{
		Inputs:  []TxInput{{PrevTxID: cbTx.ID, PrevOutIndex: 0, PubKey: minerWallet.PublicKey}},
		Outputs: []TxOutput{*changeOut},
	}
	spendTx.SetID()
	require.NoError(t, chain.SignTransaction(spendTx, minerWallet.PrivateKey))

	rewardTx, err := CoinbaseTx(minerWallet.Address(), "")
	require.NoError(t, err)

	block, err := chain.MineBlock([]*Transaction{spendTx, rewardTx})
	require.NoError(t, err)

	require.NoError(t, utxoSet.Update(block))

	utxos, err := utxoSet.FindUTXO(minerWallet.PubKeyHash())
	require.NoError(t, err)

	var total int32
	for _, out := range utxos {
		total += out.Value
	}
	require.EqualValues(t, subsidy*2, total)
}

func TestNewUTXOTransactionEndToEnd(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	require.NoError(t, utxoSet.Reindex())

	tx, err := NewUTXOTransaction(minerWallet, "1111111111111111111114oLvT2", 4, utxoSet, chain.FindTransaction)
	require.NoError(t, err)

	ok, err := chain.VerifyTransaction(tx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNewUTXOTransactionInsufficientFunds(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	require.NoError(t, utxoSet.Reindex())

	_, err = NewUTXOTransaction(minerWallet, "1111111111111111111114oLvT2", subsidy+1, utxoSet, chain.FindTransaction)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestCountTransactionsEmptyBeforeReindex(t *testing.T) {
	st := openTestStore(t)
	minerWallet := wallet.NewWallet()
	chain, err := CreateChain(minerWallet.Address(), st)
	require.NoError(t, err)

	utxoSet := UTXOSet{Chain: chain}
	count, err := utxoSet.CountTransactions()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
