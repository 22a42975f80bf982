package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(BucketBlocks, []byte("k1"), []byte("v1")))

	v, ok, err := s.Get(BucketBlocks, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	v, ok, err := s.Get(BucketBlocks, []byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
}

func TestBucketsAreIsolated(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(BucketBlocks, []byte("x"), []byte("block-value")))
	require.NoError(t, s.Put(BucketUTXOs, []byte("x"), []byte("utxo-value")))

	v, ok, err := s.Get(BucketBlocks, []byte("x"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("block-value"), v)

	v, ok, err = s.Get(BucketUTXOs, []byte("x"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("utxo-value"), v)
}

func TestDeleteRemovesKey(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(BucketWallets, []byte("k"), []byte("v")))
	require.NoError(t, s.Delete(BucketWallets, []byte("k")))

	_, ok, err := s.Get(BucketWallets, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScanYieldsAllEntriesInBucket(t *testing.T) {
	s := openTestStore(t)

	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range want {
		require.NoError(t, s.Put(BucketUTXOs, []byte(k), []byte(v)))
	}
	require.NoError(t, s.Put(BucketBlocks, []byte("a"), []byte("not-utxo")))

	it, err := s.Scan(BucketUTXOs)
	require.NoError(t, err)
	defer it.Close()

	got := map[string]string{}
	for it.Next() {
		v, err := it.Value()
		require.NoError(t, err)
		got[string(it.Key())] = string(v)
	}
	require.Equal(t, want, got)
}

func TestClearRemovesOnlyTargetBucket(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(BucketUTXOs, []byte("a"), []byte("1")))
	require.NoError(t, s.Put(BucketBlocks, []byte("a"), []byte("1")))

	require.NoError(t, s.Clear(BucketUTXOs))

	_, ok, err := s.Get(BucketUTXOs, []byte("a"))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.Get(BucketBlocks, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestExistsFalseForFreshDir(t *testing.T) {
	require.False(t, Exists(t.TempDir()))
}
