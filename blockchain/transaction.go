package blockchain

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/gob"
	"fmt"

	"github.com/kilimba/tinychain/cryptoutil"
	"github.com/kilimba/tinychain/wallet"
)

// subsidy is the fixed reward a coinbase transaction grants its miner.
// spec.md §1 Non-goals excludes halving schedules, so this never changes.
const subsidy = 10

// Transaction is spec.md §4's UTXO-model transaction: a content-derived
// ID, the outputs it spends, and the outputs it creates. Grounded on the
// teacher's transaction.go.
type Transaction struct {
	ID      []byte
	Inputs  []TxInput
	Outputs []TxOutput
}

// IsCoinbase reports whether tx is a block-reward transaction: it has
// exactly one input with no referenced previous output, grounded on the
// teacher's IsCoinbase.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && len(tx.Inputs[0].PrevTxID) == 0 && tx.Inputs[0].PrevOutIndex == -1
}

// Serialize gob-encodes tx for hashing, storage, and wire transport.
func (tx *Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return buf.Bytes(), nil
}

// DeserializeTransaction reverses Serialize, grounded on the teacher's
// DeserializeTransaction.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &tx, nil
}

// Hash returns the content hash of tx with its ID field cleared, grounded
// on the teacher's Transaction.Hash. It is the leaf fed to MerkleRoot and
// becomes tx.ID once computed.
func (tx *Transaction) Hash() []byte {
	txCopy := *tx
	txCopy.ID = []byte{}
	data, err := txCopy.Serialize()
	if err != nil {
		return nil
	}
	hash := cryptoutil.Sha256(data)
	return hash[:]
}

// SetID recomputes and assigns tx.ID from its current contents.
func (tx *Transaction) SetID() {
	tx.ID = tx.Hash()
}

// CoinbaseTx builds the reward transaction a miner includes in a block it
// mines, grounded on the teacher's CoinbaseTx. data defaults to a
// human-readable note when empty, as the teacher does.
func CoinbaseTx(to, data string) (*Transaction, error) {
	if data == "" {
		data = fmt.Sprintf("reward to %s", to)
	}

	txIn := TxInput{PrevTxID: []byte{}, PrevOutIndex: -1, Signature: nil, PubKey: []byte(data)}
	txOut, err := NewTXOutput(subsidy, to)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Inputs: []TxInput{txIn}, Outputs: []TxOutput{*txOut}}
	tx.SetID()
	return tx, nil
}

// TrimmedCopy returns a copy of tx with every input's Signature and
// PubKey cleared, the exact base the signing and verification recipe
// hashes per input (spec.md §9: implementations must match this recipe
// exactly to interoperate). Grounded on the teacher's TrimmedCopy.
func (tx *Transaction) TrimmedCopy() Transaction {
	var inputs []TxInput
	var outputs []TxOutput

	for _, in := range tx.Inputs {
		inputs = append(inputs, TxInput{PrevTxID: in.PrevTxID, PrevOutIndex: in.PrevOutIndex, Signature: nil, PubKey: nil})
	}
	outputs = append(outputs, tx.Outputs...)

	return Transaction{ID: tx.ID, Inputs: inputs, Outputs: outputs}
}

// Sign signs each non-coinbase input of tx with priv, given the set of
// previous transactions it references (keyed by the raw transaction ID
// bytes, used as a map key string). Grounded on the teacher's
// Transaction.Sign, ported onto cryptoutil.Sign's fixed-width recipe. For
// every input i the signed digest is the hash of TrimmedCopy with
// inputs[i].PubKey temporarily set to the referenced output's PubKeyHash
// and every other input's Signature/PubKey left nil, exactly the
// per-input recipe spec.md §9 calls out.
func (tx *Transaction) Sign(priv ecdsa.PrivateKey, prevTXs map[string]*Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}

	for _, in := range tx.Inputs {
		if prevTXs[string(in.PrevTxID)] == nil {
			return ErrUnknownPrevTx
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range txCopy.Inputs {
		prevTx := prevTXs[string(in.PrevTxID)]
		txCopy.Inputs[inID].Signature = nil
		txCopy.Inputs[inID].PubKey = prevTx.Outputs[in.PrevOutIndex].PubKeyHash

		digest := txCopy.Hash()
		txCopy.Inputs[inID].PubKey = nil

		sig, err := cryptoutil.Sign(priv, digest)
		if err != nil {
			return err
		}
		tx.Inputs[inID].Signature = sig
	}
	return nil
}

// Verify checks every non-coinbase input's signature against the
// referenced output's locking key, mirroring Sign's exact digest
// construction. Grounded on the teacher's Transaction.Verify.
func (tx *Transaction) Verify(prevTXs map[string]*Transaction) (bool, error) {
	if len(tx.Outputs) == 0 {
		return false, ErrEmptyOutputs
	}

	if tx.IsCoinbase() {
		return true, nil
	}

	for _, in := range tx.Inputs {
		if prevTXs[string(in.PrevTxID)] == nil {
			return false, ErrUnknownPrevTx
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range tx.Inputs {
		prevTx := prevTXs[string(in.PrevTxID)]
		txCopy.Inputs[inID].Signature = nil
		txCopy.Inputs[inID].PubKey = prevTx.Outputs[in.PrevOutIndex].PubKeyHash

		digest := txCopy.Hash()
		txCopy.Inputs[inID].PubKey = nil

		if !cryptoutil.Verify(in.PubKey, digest, in.Signature) {
			return false, nil
		}
	}
	return true, nil
}

// spendableSource is the subset of UTXOSet's behavior NewUTXOTransaction
// needs, letting tests supply a fake without a store.
type spendableSource interface {
	FindSpendableOutputs(pubKeyHash []byte, amount int32) (int32, map[string][]int32, error)
}

// NewUTXOTransaction builds and signs a transaction moving amount from
// from's wallet to address to, funded by utxoSet and resolving
// previous transactions through findTx. Grounded on the teacher's
// NewTransaction, but returns ErrInsufficientFunds instead of calling
// log.Panic, and takes the caller's wallet directly instead of loading a
// keyring itself, per this codebase's explicit-error, explicit-dependency
// convention (spec.md §7).
func NewUTXOTransaction(from *wallet.Wallet, to string, amount int32, utxoSet spendableSource, findTx func(id []byte) (*Transaction, error)) (*Transaction, error) {
	var inputs []TxInput
	var outputs []TxOutput

	pubKeyHash := from.PubKeyHash()
	acc, validOutputs, err := utxoSet.FindSpendableOutputs(pubKeyHash, amount)
	if err != nil {
		return nil, err
	}
	if acc < amount {
		return nil, ErrInsufficientFunds
	}

	for txIDStr, outs := range validOutputs {
		txID := []byte(txIDStr)
		for _, outIdx := range outs {
			inputs = append(inputs, TxInput{PrevTxID: txID, PrevOutIndex: outIdx, Signature: nil, PubKey: from.PublicKey})
		}
	}

	toOut, err := NewTXOutput(amount, to)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, *toOut)
	if acc > amount {
		changeOut, err := NewTXOutput(acc-amount, from.Address())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *changeOut)
	}

	tx := &Transaction{Inputs: inputs, Outputs: outputs}
	tx.SetID()

	prevTXs := make(map[string]*Transaction)
	for _, in := range inputs {
		prevTx, err := findTx(in.PrevTxID)
		if err != nil {
			return nil, err
		}
		prevTXs[string(prevTx.ID)] = prevTx
	}

	if err := tx.Sign(from.PrivateKey, prevTXs); err != nil {
		return nil, err
	}
	return tx, nil
}
