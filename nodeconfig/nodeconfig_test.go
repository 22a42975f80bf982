package nodeconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefault(t *testing.T) {
	cfg := Load("", "")
	require.Equal(t, DefaultNodeAddr, cfg.NodeAddr)
	require.Empty(t, cfg.MiningAddr)
}

func TestLoadPrefersExplicitAddr(t *testing.T) {
	cfg := Load("127.0.0.1:9999", "addr1")
	require.Equal(t, "127.0.0.1:9999", cfg.NodeAddr)
	require.Equal(t, "addr1", cfg.MiningAddr)
}

func TestPeerSetAddIsIdempotent(t *testing.T) {
	ps := NewPeerSet("127.0.0.1:2001")
	ps.Add("127.0.0.1:2002")
	ps.Add("127.0.0.1:2002")
	require.ElementsMatch(t, []string{"127.0.0.1:2001", "127.0.0.1:2002"}, ps.All())
}

func TestPeerSetRemove(t *testing.T) {
	ps := NewPeerSet("127.0.0.1:2001", "127.0.0.1:2002")
	ps.Remove("127.0.0.1:2001")
	require.Equal(t, []string{"127.0.0.1:2002"}, ps.All())
}

func TestPeerSetBootstrap(t *testing.T) {
	ps := NewPeerSet("127.0.0.1:2001")
	require.Equal(t, "127.0.0.1:2001", ps.Bootstrap())
}
