// Package cryptoutil holds the crypto primitives spec.md §4.B names:
// SHA-256, RIPEMD-160, ECDSA over P-256, and Base58Check. Grounded on the
// teacher's wallet/wallet.go (NewKeyPair, PublicKeyHash, Checksum) and
// wallet/utils.go (Base58Encode/Decode), lifted out of the wallet package
// since the chain/transaction code needs the same hashing without
// depending on wallet.
package cryptoutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	// ChecksumLength is the number of checksum bytes appended to a
	// Base58Check payload.
	ChecksumLength = 4
	// AddressVersion is the single version byte prefixed to a public key
	// hash before Base58Check-encoding it (spec.md §3).
	AddressVersion = byte(0x00)
	// curve is fixed to P-256 throughout; every public key and signature
	// in this codebase assumes it.
)

// Curve is the elliptic curve every keypair in this codebase uses.
func Curve() elliptic.Curve { return elliptic.P256() }

// Sha256 returns the 32-byte SHA-256 digest of data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Ripemd160 returns the 20-byte RIPEMD-160 digest of data.
func Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	if _, err := h.Write(data); err != nil {
		panic(err) // hash.Hash.Write never fails
	}
	return h.Sum(nil)
}

// Hash160 is SHA-256 followed by RIPEMD-160 ("PKH" in spec.md's GLOSSARY).
func Hash160(data []byte) []byte {
	sum := Sha256(data)
	return Ripemd160(sum[:])
}

// Checksum returns the first ChecksumLength bytes of the double-SHA-256
// of payload, per spec.md §3's address checksum.
func Checksum(payload []byte) []byte {
	first := Sha256(payload)
	second := Sha256(first[:])
	return second[:ChecksumLength]
}

// NewKeyPair generates an ECDSA keypair on P-256. The returned public key
// is the raw X||Y concatenation (64 bytes, no leading tag byte) — one of
// the two valid conventions spec.md §4.B allows; this codebase uses it
// consistently everywhere a public key is stored or transmitted.
func NewKeyPair() (ecdsa.PrivateKey, []byte) {
	priv, err := ecdsa.GenerateKey(Curve(), rand.Reader)
	if err != nil {
		panic(err)
	}
	pub := make([]byte, 64)
	priv.PublicKey.X.FillBytes(pub[:32])
	priv.PublicKey.Y.FillBytes(pub[32:])
	return *priv, pub
}

// Sign produces a fixed-width 64-byte r||s ECDSA signature over digest,
// left-padding each of r and s to 32 bytes. Fixed width is required so
// Verify can split the signature in half deterministically — the
// teacher's variable-width append(r.Bytes(), s.Bytes()...) breaks this
// whenever r or s has a leading zero byte.
func Sign(priv ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, &priv, digest)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}

// Verify checks a fixed-width 64-byte r||s signature produced by Sign
// against the given raw X||Y public key and digest.
func Verify(pub []byte, digest []byte, sig []byte) bool {
	if len(pub) != 64 || len(sig) != 64 {
		return false
	}
	x := new(big.Int).SetBytes(pub[:32])
	y := new(big.Int).SetBytes(pub[32:])
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])

	pubKey := ecdsa.PublicKey{Curve: Curve(), X: x, Y: y}
	return ecdsa.Verify(&pubKey, digest, r, s)
}

// Base58CheckEncode encodes payload (version byte already prepended by
// the caller) as Base58 with a trailing 4-byte checksum.
func Base58CheckEncode(versionedPayload []byte) string {
	checksum := Checksum(versionedPayload)
	full := append(append([]byte{}, versionedPayload...), checksum...)
	return base58.Encode(full)
}

// Base58CheckDecode decodes a Base58Check string, verifying its checksum.
// It returns the full decoded payload (version byte + data + checksum)
// and an error if decoding fails or the checksum doesn't match.
func Base58CheckDecode(address string) ([]byte, error) {
	full, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("base58 decode: %w", err)
	}
	if len(full) < ChecksumLength+1 {
		return nil, fmt.Errorf("base58check: decoded payload too short")
	}
	payload := full[:len(full)-ChecksumLength]
	checksum := full[len(full)-ChecksumLength:]
	want := Checksum(payload)
	if string(checksum) != string(want) {
		return nil, fmt.Errorf("base58check: checksum mismatch")
	}
	return full, nil
}
