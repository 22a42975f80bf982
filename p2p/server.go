package p2p

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"

	"github.com/kilimba/tinychain/blockchain"
	"github.com/kilimba/tinychain/internal/logging"
	"github.com/kilimba/tinychain/mempool"
	"github.com/kilimba/tinychain/nodeconfig"
	"github.com/vrecan/death/v3"
)

const protocol = "tcp"

// miningThreshold is the mempool size at which a mining node kicks off a
// block, generalized from the teacher's inline literal 2 to spec.md's
// threshold-of-1 suggestion so a single relayed transaction with no local
// mine is enough to trigger mining.
const miningThreshold = 1

// Server is a running node's P2P endpoint: it accepts peer connections,
// keeps the chain and UTXO set current, and feeds the mempool-driven
// miner loop. Grounded on the teacher's network package, whose
// equivalent state (mempool, known-nodes, blocks-in-transit) lived in
// package-level variables instead of fields on a type.
type Server struct {
	cfg     nodeconfig.Config
	chain   *blockchain.Chain
	utxoSet blockchain.UTXOSet
	pool    *mempool.Pool

	mu              sync.Mutex
	blocksInTransit [][]byte
}

// NewServer wires a Server around an already-loaded chain.
func NewServer(cfg nodeconfig.Config, chain *blockchain.Chain) *Server {
	return &Server{
		cfg:     cfg,
		chain:   chain,
		utxoSet: blockchain.UTXOSet{Chain: chain},
		pool:    mempool.New(),
	}
}

// ListenAndServe binds cfg.NodeAddr, announces this node to the bootstrap
// peer when it isn't the bootstrap itself, and serves connections until
// a termination signal arrives. Grounded on the teacher's StartServer.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen(protocol, s.cfg.NodeAddr)
	if err != nil {
		return fmt.Errorf("p2p: listen %s: %w", s.cfg.NodeAddr, err)
	}
	defer ln.Close()

	go s.waitForShutdown()

	if s.cfg.NodeAddr != s.cfg.KnownNodes.Bootstrap() {
		if err := s.sendVersion(s.cfg.KnownNodes.Bootstrap()); err != nil {
			logging.Warn("could not reach bootstrap node: %v", err)
		}
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			logging.Warn("accept failed: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

// waitForShutdown logs and exits the process on SIGINT/SIGTERM, grounded
// on the teacher's CloseDB. It does not close the chain's underlying
// store, and os.Exit skips the caller's deferred Close.
func (s *Server) waitForShutdown() {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		logging.Info("shutting down node %s", s.cfg.NodeAddr)
		os.Exit(0)
	})
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	cmd, payload, err := readFrame(conn)
	if err != nil {
		logging.Warn("reading frame from %s: %v", conn.RemoteAddr(), err)
		return
	}

	var handleErr error
	switch cmd {
	case cmdVersion:
		handleErr = s.handleVersion(payload)
	case cmdGetBlocks:
		handleErr = s.handleGetBlocks(payload)
	case cmdInv:
		handleErr = s.handleInv(payload)
	case cmdGetData:
		handleErr = s.handleGetData(payload)
	case cmdBlock:
		handleErr = s.handleBlock(payload)
	case cmdTx:
		handleErr = s.handleTx(payload)
	default:
		logging.Warn("unknown command %q from %s", cmd, conn.RemoteAddr())
	}
	if handleErr != nil {
		logging.Warn("handling %s from %s: %v", cmd, conn.RemoteAddr(), handleErr)
	}
}

func (s *Server) send(addr string, cmd string, payload interface{}) error {
	frame, err := encodeFrame(cmd, payload)
	if err != nil {
		return err
	}

	conn, err := net.Dial(protocol, addr)
	if err != nil {
		// Connection errors drop the peer silently for this send; the
		// peer stays in KnownNodes so a transient failure doesn't
		// permanently sever it.
		return fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	defer conn.Close()

	_, err = conn.Write(frame)
	return err
}

func (s *Server) sendVersion(addr string) error {
	height, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}
	return s.send(addr, cmdVersion, versionMsg{Version: protocolVersion, BestHeight: height, AddrFrom: s.cfg.NodeAddr})
}

func (s *Server) sendGetBlocks(addr string) error {
	return s.send(addr, cmdGetBlocks, getBlocksMsg{AddrFrom: s.cfg.NodeAddr})
}

func (s *Server) sendGetData(addr, kind string, id []byte) error {
	return s.send(addr, cmdGetData, getDataMsg{AddrFrom: s.cfg.NodeAddr, Kind: kind, ID: id})
}

func (s *Server) sendInv(addr, kind string, items [][]byte) error {
	return s.send(addr, cmdInv, invMsg{AddrFrom: s.cfg.NodeAddr, Kind: kind, Items: items})
}

func (s *Server) sendBlock(addr string, b *blockchain.Block) error {
	data, err := b.Serialize()
	if err != nil {
		return err
	}
	return s.send(addr, cmdBlock, blockMsg{AddrFrom: s.cfg.NodeAddr, Block: data})
}

func (s *Server) sendTx(addr string, tx *blockchain.Transaction) error {
	data, err := tx.Serialize()
	if err != nil {
		return err
	}
	return s.send(addr, cmdTx, txMsg{AddrFrom: s.cfg.NodeAddr, Transaction: data})
}

// handleVersion compares chain heights with the peer and pulls or pushes
// blocks accordingly, grounded on the teacher's HandleVersion.
func (s *Server) handleVersion(payload []byte) error {
	var msg versionMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}

	myHeight, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}

	if myHeight < msg.BestHeight {
		if err := s.sendGetBlocks(msg.AddrFrom); err != nil {
			logging.Warn("requesting blocks from %s: %v", msg.AddrFrom, err)
		}
	} else if myHeight > msg.BestHeight {
		if err := s.sendVersion(msg.AddrFrom); err != nil {
			logging.Warn("sending version to %s: %v", msg.AddrFrom, err)
		}
	}

	s.cfg.KnownNodes.Add(msg.AddrFrom)
	return nil
}

// handleGetBlocks answers with every hash this node has, grounded on the
// teacher's HandleGetBlocks.
func (s *Server) handleGetBlocks(payload []byte) error {
	var msg getBlocksMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}
	hashes, err := s.chain.GetBlockHashes()
	if err != nil {
		return err
	}
	return s.sendInv(msg.AddrFrom, "block", hashes)
}

// handleInv records advertised block hashes to fetch, or requests a
// transaction this node doesn't already hold, grounded on the teacher's
// HandleInv.
func (s *Server) handleInv(payload []byte) error {
	var msg invMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}
	if len(msg.Items) == 0 {
		return nil
	}

	switch msg.Kind {
	case "block":
		s.mu.Lock()
		s.blocksInTransit = msg.Items
		s.mu.Unlock()

		first := msg.Items[0]
		if err := s.sendGetData(msg.AddrFrom, "block", first); err != nil {
			return err
		}
		s.mu.Lock()
		s.blocksInTransit = removeHash(s.blocksInTransit, first)
		s.mu.Unlock()

	case "tx":
		txID := msg.Items[0]
		if !s.pool.Contains(txID) {
			return s.sendGetData(msg.AddrFrom, "tx", txID)
		}
	}
	return nil
}

// handleGetData serves a stored block or a pending mempool transaction,
// grounded on the teacher's HandleGetData.
func (s *Server) handleGetData(payload []byte) error {
	var msg getDataMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}

	switch msg.Kind {
	case "block":
		block, err := s.chain.GetBlock(msg.ID)
		if err != nil {
			return nil
		}
		return s.sendBlock(msg.AddrFrom, block)
	case "tx":
		tx, ok := s.pool.Get(msg.ID)
		if !ok {
			return nil
		}
		return s.sendTx(msg.AddrFrom, tx)
	}
	return nil
}

// handleBlock appends a received block, continues downloading any queued
// blocks, and reindexes the UTXO set once the download completes.
// Grounded on the teacher's HandleBlock.
func (s *Server) handleBlock(payload []byte) error {
	var msg blockMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}

	block, err := blockchain.DeserializeBlock(msg.Block)
	if err != nil {
		return err
	}
	if err := s.chain.AddBlock(block); err != nil {
		return err
	}
	logging.Info("added block %x at height %d", block.Hash, block.Height)

	s.mu.Lock()
	remaining := len(s.blocksInTransit)
	var next []byte
	if remaining > 0 {
		next = s.blocksInTransit[0]
		s.blocksInTransit = s.blocksInTransit[1:]
	}
	s.mu.Unlock()

	if remaining > 0 {
		return s.sendGetData(msg.AddrFrom, "block", next)
	}
	return s.utxoSet.Reindex()
}

// handleTx admits a transaction to the mempool, relays it when this node
// is the bootstrap, or mines a block once enough transactions have
// accumulated. Grounded on the teacher's HandleTx/MineTx.
func (s *Server) handleTx(payload []byte) error {
	var msg txMsg
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}

	tx, err := blockchain.DeserializeTransaction(msg.Transaction)
	if err != nil {
		return err
	}
	s.pool.Insert(tx)

	if s.cfg.NodeAddr == s.cfg.KnownNodes.Bootstrap() {
		for _, node := range s.cfg.KnownNodes.All() {
			if node != s.cfg.NodeAddr && node != msg.AddrFrom {
				if err := s.sendInv(node, "tx", [][]byte{tx.ID}); err != nil {
					logging.Warn("relaying tx to %s: %v", node, err)
				}
			}
		}
		return nil
	}

	if s.pool.Len() >= miningThreshold && s.cfg.MiningAddr != "" {
		return s.mine()
	}
	return nil
}

// mine drains the mempool of valid transactions, appends a coinbase
// reward, mines a block, reindexes the UTXO set, and broadcasts the new
// block, recursing while transactions remain. Grounded on the teacher's
// MineTx.
func (s *Server) mine() error {
	candidates := s.pool.TakeAll()

	var txs []*blockchain.Transaction
	for _, tx := range candidates {
		ok, err := s.chain.VerifyTransaction(tx)
		if err != nil || !ok {
			logging.Warn("dropping invalid transaction %x", tx.ID)
			continue
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return nil
	}

	cbTx, err := blockchain.CoinbaseTx(s.cfg.MiningAddr, "")
	if err != nil {
		return err
	}
	txs = append(txs, cbTx)

	newBlock, err := s.chain.MineBlock(txs)
	if err != nil {
		return err
	}
	if err := s.utxoSet.Reindex(); err != nil {
		return err
	}
	logging.Info("mined block %x at height %d", newBlock.Hash, newBlock.Height)

	for _, node := range s.cfg.KnownNodes.All() {
		if node != s.cfg.NodeAddr {
			if err := s.sendInv(node, "block", [][]byte{newBlock.Hash}); err != nil {
				logging.Warn("announcing new block to %s: %v", node, err)
			}
		}
	}

	if s.pool.Len() > 0 {
		return s.mine()
	}
	return nil
}

func removeHash(hashes [][]byte, target []byte) [][]byte {
	var kept [][]byte
	for _, h := range hashes {
		if !bytes.Equal(h, target) {
			kept = append(kept, h)
		}
	}
	return kept
}
