// Package wallet implements spec.md §4.C: keypair generation, address
// derivation, and a persisted keyring. Grounded on the teacher's
// wallet/wallet.go and wallet/wallets.go.
package wallet

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/gob"
	"errors"
	"math/big"

	"github.com/kilimba/tinychain/cryptoutil"
)

// ErrInvalidAddress is returned when an address fails Base58Check
// decoding, checksum verification, or length validation (spec.md §3/§7).
var ErrInvalidAddress = errors.New("wallet: invalid address")

// Wallet is a single keypair plus its derived address, grounded on the
// teacher's Wallet type.
type Wallet struct {
	PrivateKey ecdsa.PrivateKey
	PublicKey  []byte
}

// NewWallet creates a fresh keypair.
func NewWallet() *Wallet {
	priv, pub := cryptoutil.NewKeyPair()
	return &Wallet{PrivateKey: priv, PublicKey: pub}
}

// PubKeyHash returns Hash160(PublicKey), the "PKH" spec.md's GLOSSARY
// defines.
func (w *Wallet) PubKeyHash() []byte {
	return cryptoutil.Hash160(w.PublicKey)
}

// Address derives the wallet's Base58Check address: version || PKH,
// checksummed (spec.md §3).
func (w *Wallet) Address() string {
	versioned := append([]byte{cryptoutil.AddressVersion}, w.PubKeyHash()...)
	return cryptoutil.Base58CheckEncode(versioned)
}

// PubKeyHashFromAddress decodes address and returns its 20-byte PKH,
// validating it along the way.
func PubKeyHashFromAddress(address string) ([]byte, error) {
	full, err := cryptoutil.Base58CheckDecode(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if len(full) != 25 {
		return nil, ErrInvalidAddress
	}
	return full[1 : len(full)-cryptoutil.ChecksumLength], nil
}

// ValidateAddress reports whether address decodes to a 25-byte
// version+PKH+checksum payload with a matching checksum (spec.md §3).
func ValidateAddress(address string) bool {
	_, err := PubKeyHashFromAddress(address)
	return err == nil
}

// GobEncode implements gob.GobEncoder. Only the private scalar D is
// serialized — the curve is fixed to P-256, so the public key and curve
// are reconstructed from D on decode, grounded on the same optimization
// the teacher's wallet.go uses.
func (w *Wallet) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(w.PrivateKey.D.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (w *Wallet) GobDecode(data []byte) error {
	var dBytes []byte
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&dBytes); err != nil {
		return err
	}

	curve := cryptoutil.Curve()
	d := new(big.Int).SetBytes(dBytes)
	x, y := curve.ScalarBaseMult(dBytes)

	w.PrivateKey = ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	pub := make([]byte, 64)
	x.FillBytes(pub[:32])
	y.FillBytes(pub[32:])
	w.PublicKey = pub
	return nil
}
