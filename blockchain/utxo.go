package blockchain

import (
	"github.com/kilimba/tinychain/store"
)

// UTXOSet is the spendable-output index maintained alongside the chain
// so wallet balance and transaction construction never have to scan
// every block. Grounded on the teacher's UTXOSet, re-pointed at the
// consolidated Chain type and the store.Store façade in place of a raw
// badger handle with an ad hoc key prefix.
type UTXOSet struct {
	Chain *Chain
}

// FindSpendableOutputs is the coin-selection algorithm behind
// NewUTXOTransaction: it walks the UTXO bucket accumulating outputs
// locked to pubKeyHash until amount is covered. Grounded on the
// teacher's UTXOSet.FindSpendableOutputs.
func (u UTXOSet) FindSpendableOutputs(pubKeyHash []byte, amount int32) (int32, map[string][]int32, error) {
	unspentOuts := make(map[string][]int32)
	var accumulated int32

	it, err := u.Chain.st.Scan(store.BucketUTXOs)
	if err != nil {
		return 0, nil, err
	}
	defer it.Close()

	for it.Next() {
		if accumulated >= amount {
			break
		}
		txID := it.Key()
		val, err := it.Value()
		if err != nil {
			return 0, nil, err
		}
		outs, err := DeserializeOutputs(val)
		if err != nil {
			return 0, nil, err
		}

		for outIdx, out := range outs.Outputs {
			if out.IsLockedWithKey(pubKeyHash) && accumulated < amount {
				accumulated += out.Value
				unspentOuts[string(txID)] = append(unspentOuts[string(txID)], int32(outIdx))
			}
		}
	}

	return accumulated, unspentOuts, nil
}

// FindUTXO returns every unspent output locked to pubKeyHash, used for
// wallet balance queries. Grounded on the teacher's
// UTXOSet.FindUnspentTransactions.
func (u UTXOSet) FindUTXO(pubKeyHash []byte) ([]TxOutput, error) {
	var utxos []TxOutput

	it, err := u.Chain.st.Scan(store.BucketUTXOs)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for it.Next() {
		val, err := it.Value()
		if err != nil {
			return nil, err
		}
		outs, err := DeserializeOutputs(val)
		if err != nil {
			return nil, err
		}
		for _, out := range outs.Outputs {
			if out.IsLockedWithKey(pubKeyHash) {
				utxos = append(utxos, out)
			}
		}
	}
	return utxos, nil
}

// CountTransactions returns the number of transactions with at least one
// unspent output, grounded on the teacher's UTXOSet.CountTransactions.
func (u UTXOSet) CountTransactions() (int, error) {
	it, err := u.Chain.st.Scan(store.BucketUTXOs)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	return count, nil
}

// findAllUnspentTransactions walks the whole chain computing every
// currently-unspent output, the expensive full rebuild Reindex uses.
// Grounded on the teacher's BlockChain.FindUTXO.
func (u UTXOSet) findAllUnspentTransactions() (map[string]TxOutputs, error) {
	UTXO := make(map[string]TxOutputs)
	spentTXOs := make(map[string][]int32)

	it := u.Chain.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}

		for _, tx := range block.Transactions {
			txID := string(tx.ID)

		Outputs:
			for outIdx, out := range tx.Outputs {
				for _, spentOut := range spentTXOs[txID] {
					if spentOut == int32(outIdx) {
						continue Outputs
					}
				}
				outs := UTXO[txID]
				outs.Outputs = append(outs.Outputs, out)
				UTXO[txID] = outs
			}

			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					inTxID := string(in.PrevTxID)
					spentTXOs[inTxID] = append(spentTXOs[inTxID], in.PrevOutIndex)
				}
			}
		}
	}

	return UTXO, nil
}

// Reindex rebuilds the UTXO bucket from scratch by replaying the whole
// chain. Grounded on the teacher's UTXOSet.Reindex.
func (u UTXOSet) Reindex() error {
	if err := u.Chain.st.Clear(store.BucketUTXOs); err != nil {
		return err
	}

	utxo, err := u.findAllUnspentTransactions()
	if err != nil {
		return err
	}

	for txID, outs := range utxo {
		data, err := outs.Serialize()
		if err != nil {
			return err
		}
		if err := u.Chain.st.Put(store.BucketUTXOs, []byte(txID), data); err != nil {
			return err
		}
	}
	return nil
}

// Update incrementally advances the UTXO bucket when block is appended
// to the chain: it removes outputs block's transactions spent and adds
// the outputs they created. Grounded on the teacher's UTXOSet.Update,
// the hot path invoked once per accepted block.
func (u UTXOSet) Update(block *Block) error {
	for _, tx := range block.Transactions {
		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				val, ok, err := u.Chain.st.Get(store.BucketUTXOs, in.PrevTxID)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				outs, err := DeserializeOutputs(val)
				if err != nil {
					return err
				}

				var remaining TxOutputs
				for outIdx, out := range outs.Outputs {
					if int32(outIdx) != in.PrevOutIndex {
						remaining.Outputs = append(remaining.Outputs, out)
					}
				}

				if len(remaining.Outputs) == 0 {
					if err := u.Chain.st.Delete(store.BucketUTXOs, in.PrevTxID); err != nil {
						return err
					}
				} else {
					data, err := remaining.Serialize()
					if err != nil {
						return err
					}
					if err := u.Chain.st.Put(store.BucketUTXOs, in.PrevTxID, data); err != nil {
						return err
					}
				}
			}
		}

		var newOutputs TxOutputs
		newOutputs.Outputs = append(newOutputs.Outputs, tx.Outputs...)
		data, err := newOutputs.Serialize()
		if err != nil {
			return err
		}
		if err := u.Chain.st.Put(store.BucketUTXOs, tx.ID, data); err != nil {
			return err
		}
	}
	return nil
}
