// Package nodeconfig models a running node's identity and known peers as
// an explicit value threaded through constructors, rather than as the
// package-level globals the teacher's network package used.
package nodeconfig

import (
	"os"
	"sync"
)

// DefaultNodeAddr is used when neither the NODE_ADDRESS environment
// variable nor an explicit CLI flag supplies one, grounded on the
// teacher's bootstrap address "localhost:3000".
const DefaultNodeAddr = "127.0.0.1:2001"

// Config is a node's identity: its own listen address, the address it
// mines rewards to (empty if this node doesn't mine), and the set of
// peers it knows about.
type Config struct {
	NodeAddr   string
	MiningAddr string
	KnownNodes *PeerSet
}

// Load builds a Config from explicit CLI values, falling back to the
// NODE_ADDRESS environment variable and finally DefaultNodeAddr.
// Grounded on the teacher's StartServer, which read nodeID from a CLI
// flag and formatted "localhost:<nodeID>" directly; this generalizes
// that to a full host:port so a node isn't pinned to localhost.
func Load(cliAddr, cliMiner string) Config {
	addr := cliAddr
	if addr == "" {
		addr = os.Getenv("NODE_ADDRESS")
	}
	if addr == "" {
		addr = DefaultNodeAddr
	}

	return Config{
		NodeAddr:   addr,
		MiningAddr: cliMiner,
		KnownNodes: NewPeerSet(DefaultNodeAddr),
	}
}

// PeerSet is a mutex-guarded list of known peer addresses, grounded on
// the teacher's package-level KnownNodes slice, which HandleAddr,
// HandleVersion, and SendData all mutated without synchronization.
type PeerSet struct {
	mu    sync.Mutex
	peers []string
}

// NewPeerSet returns a PeerSet seeded with the given bootstrap addresses.
func NewPeerSet(bootstrap ...string) *PeerSet {
	peers := make([]string, len(bootstrap))
	copy(peers, bootstrap)
	return &PeerSet{peers: peers}
}

// All returns a snapshot of every known peer address.
func (p *PeerSet) All() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.peers))
	copy(out, p.peers)
	return out
}

// Bootstrap returns the first known peer, the node new connections
// announce themselves to, grounded on the teacher's KnownNodes[0] checks.
func (p *PeerSet) Bootstrap() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.peers) == 0 {
		return ""
	}
	return p.peers[0]
}

// Contains reports whether addr is already known.
func (p *PeerSet) Contains(addr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.peers {
		if n == addr {
			return true
		}
	}
	return false
}

// Add appends addr if it isn't already known.
func (p *PeerSet) Add(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.peers {
		if n == addr {
			return
		}
	}
	p.peers = append(p.peers, addr)
}

// Remove drops addr from the known set. A failed dial does not call it;
// the peer stays known for a later retry.
func (p *PeerSet) Remove(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kept []string
	for _, n := range p.peers {
		if n != addr {
			kept = append(kept, n)
		}
	}
	p.peers = kept
}
