package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub := NewKeyPair()
	digest := Sha256([]byte("hello block"))

	sig, err := Sign(priv, digest[:])
	require.NoError(t, err)
	require.Len(t, sig, 64)

	require.True(t, Verify(pub, digest[:], sig))
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	priv, pub := NewKeyPair()
	digest := Sha256([]byte("hello block"))

	sig, err := Sign(priv, digest[:])
	require.NoError(t, err)

	tampered := Sha256([]byte("hello block!"))
	require.False(t, Verify(pub, tampered[:], sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, _ := NewKeyPair()
	_, otherPub := NewKeyPair()
	digest := Sha256([]byte("payload"))

	sig, err := Sign(priv, digest[:])
	require.NoError(t, err)

	require.False(t, Verify(otherPub, digest[:], sig))
}

func TestHash160Length(t *testing.T) {
	h := Hash160([]byte("some public key bytes"))
	require.Len(t, h, 20)
}

func TestBase58CheckRoundTrip(t *testing.T) {
	payload := append([]byte{AddressVersion}, Hash160([]byte("pub"))...)
	encoded := Base58CheckEncode(payload)

	decoded, err := Base58CheckDecode(encoded)
	require.NoError(t, err)
	require.Equal(t, 25, len(decoded))
	require.Equal(t, payload, decoded[:len(payload)])
}

func TestBase58CheckDecodeRejectsBadChecksum(t *testing.T) {
	payload := append([]byte{AddressVersion}, Hash160([]byte("pub"))...)
	encoded := Base58CheckEncode(payload)

	// Flip the last character to corrupt the checksum.
	corrupted := []byte(encoded)
	if corrupted[len(corrupted)-1] == 'a' {
		corrupted[len(corrupted)-1] = 'b'
	} else {
		corrupted[len(corrupted)-1] = 'a'
	}

	_, err := Base58CheckDecode(string(corrupted))
	require.Error(t, err)
}
