package wallet

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/kilimba/tinychain/store"
)

// keyringKey is the single well-known key the whole keyring blob is
// stored under within the wallets bucket (spec.md §6).
var keyringKey = []byte("keyring")

// Keyring is the address -> Wallet mapping described in spec.md §4.C,
// named to avoid the wallet/Wallets stutter the teacher's type name had.
// It persists as one gob-encoded blob through the store façade instead of
// the teacher's per-node flat file, since spec.md §6 lists "wallets" as a
// KV bucket rather than a separate file format.
type Keyring struct {
	st      store.Store
	Wallets map[string]*Wallet
}

// LoadKeyring loads the keyring blob from st, or returns an empty keyring
// if none has been saved yet (first run).
func LoadKeyring(st store.Store) (*Keyring, error) {
	kr := &Keyring{st: st, Wallets: make(map[string]*Wallet)}

	blob, ok, err := st.Get(store.BucketWallets, keyringKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return kr, nil
	}

	dec := gob.NewDecoder(bytes.NewReader(blob))
	if err := dec.Decode(&kr.Wallets); err != nil {
		return nil, fmt.Errorf("wallet: decode keyring: %w", err)
	}
	return kr, nil
}

// CreateWallet generates a fresh wallet, adds it to the keyring, persists
// the whole keyring atomically, and returns the new address.
func (kr *Keyring) CreateWallet() (string, error) {
	w := NewWallet()
	address := w.Address()
	kr.Wallets[address] = w

	if err := kr.save(); err != nil {
		return "", err
	}
	return address, nil
}

// ListAddresses returns every address currently held in the keyring.
func (kr *Keyring) ListAddresses() []string {
	addresses := make([]string, 0, len(kr.Wallets))
	for addr := range kr.Wallets {
		addresses = append(addresses, addr)
	}
	return addresses
}

// GetWallet looks up a wallet by address.
func (kr *Keyring) GetWallet(address string) (*Wallet, bool) {
	w, ok := kr.Wallets[address]
	return w, ok
}

// save writes the whole keyring back as one blob — a read-modify-write
// of a single value, matching spec.md §4.C's persistence guarantee.
func (kr *Keyring) save() error {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(kr.Wallets); err != nil {
		return fmt.Errorf("wallet: encode keyring: %w", err)
	}
	return kr.st.Put(store.BucketWallets, keyringKey, buf.Bytes())
}
