package blockchain

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/kilimba/tinychain/cryptoutil"
	"github.com/kilimba/tinychain/wallet"
)

// TxInput references a previously created output being spent. Value and
// index fields are int32 per spec.md §3 (the teacher used platform int).
type TxInput struct {
	PrevTxID     []byte
	PrevOutIndex int32
	Signature    []byte
	PubKey       []byte
}

// UsesKey reports whether this input was signed with pubKeyHash's key,
// grounded on the teacher's TxInput.CanUnlock but comparing the PKH of
// the carried public key rather than a raw string match.
func (in *TxInput) UsesKey(pubKeyHash []byte) bool {
	return bytes.Equal(cryptoutil.Hash160(in.PubKey), pubKeyHash)
}

// TxOutput is an indivisible unit of value locked to a public key hash.
// Value is int32 per spec.md §3.
type TxOutput struct {
	Value      int32
	PubKeyHash []byte
}

// NewTXOutput builds an output locking value to address's PKH. Grounded
// on the teacher's NewTXOutput(amount, to) call in transaction.go — the
// teacher's own body was absent from the retrieved snapshot, so this
// reconstructs it from the address-decoding idiom used elsewhere in the
// teacher (base58-check decode, stripping version+checksum).
func NewTXOutput(value int32, address string) (*TxOutput, error) {
	pkh, err := wallet.PubKeyHashFromAddress(address)
	if err != nil {
		return nil, err
	}
	return &TxOutput{Value: value, PubKeyHash: pkh}, nil
}

// IsLockedWithKey reports whether this output is spendable by pubKeyHash.
func (out *TxOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// TxOutputs is the serializable collection of outputs the UTXO set stores
// per transaction ID. Reconstructed in the same gob-over-bytes.Buffer
// idiom as Block.Serialize/Deserialize — the teacher's utxo.go calls
// outs.Serialize()/DeserializeOutputs(val) but the type itself was absent
// from the retrieved snapshot.
type TxOutputs struct {
	Outputs []TxOutput
}

// Serialize gob-encodes the output collection for storage in the utxos
// bucket.
func (outs TxOutputs) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(outs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return buf.Bytes(), nil
}

// DeserializeOutputs reverses Serialize.
func DeserializeOutputs(data []byte) (TxOutputs, error) {
	var outs TxOutputs
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&outs); err != nil {
		return TxOutputs{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return outs, nil
}
