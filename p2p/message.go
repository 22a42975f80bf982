// Package p2p implements the node-to-node gossip protocol: version
// handshakes, block/transaction inventory, and transfer.
package p2p

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

const (
	protocolVersion = 1
	commandLength   = 12
)

// Command names, fixed at commandLength bytes on the wire.
const (
	cmdVersion   = "version"
	cmdGetBlocks = "getblocks"
	cmdInv       = "inv"
	cmdGetData   = "getdata"
	cmdBlock     = "block"
	cmdTx        = "tx"
)

// versionMsg is the handshake a node sends a peer on first contact,
// grounded on the teacher's Version struct.
type versionMsg struct {
	Version    int
	BestHeight int64
	AddrFrom   string
}

// getBlocksMsg requests the full set of block hashes a peer holds,
// grounded on the teacher's GetBlocks struct.
type getBlocksMsg struct {
	AddrFrom string
}

// invMsg advertises hashes a peer has available, grounded on the
// teacher's Inv struct. Kind is "block" or "tx".
type invMsg struct {
	AddrFrom string
	Kind     string
	Items    [][]byte
}

// getDataMsg requests one specific block or transaction by hash,
// grounded on the teacher's GetData struct.
type getDataMsg struct {
	AddrFrom string
	Kind     string
	ID       []byte
}

// blockMsg carries a single serialized block, grounded on the teacher's
// Block struct (renamed to avoid colliding with blockchain.Block).
type blockMsg struct {
	AddrFrom string
	Block    []byte
}

// txMsg carries a single serialized transaction, grounded on the
// teacher's Tx struct.
type txMsg struct {
	AddrFrom    string
	Transaction []byte
}

// cmdBytes pads cmd to a fixed commandLength-byte array, grounded on the
// teacher's CmdToBytes.
func cmdBytes(cmd string) []byte {
	var b [commandLength]byte
	copy(b[:], cmd)
	return b[:]
}

// cmdFromBytes strips the zero padding off a fixed command field,
// grounded on the teacher's BytesToCmd.
func cmdFromBytes(b []byte) string {
	var out []byte
	for _, c := range b {
		if c != 0 {
			out = append(out, c)
		}
	}
	return string(out)
}

// encodeFrame gob-encodes payload, prefixes it with the 12-byte command
// and a 4-byte big-endian length, and returns the full frame. Explicit
// length-prefixing replaces the teacher's reliance on io.Copy-to-EOF
// (ioutil.ReadAll(conn)), which only works because the teacher always
// closes the connection after a single message — a framing that breaks
// under a persistent connection carrying more than one message.
func encodeFrame(cmd string, payload interface{}) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(payload); err != nil {
		return nil, fmt.Errorf("p2p: encode %s: %w", cmd, err)
	}

	frame := make([]byte, 4+commandLength+body.Len())
	binary.BigEndian.PutUint32(frame[:4], uint32(commandLength+body.Len()))
	copy(frame[4:4+commandLength], cmdBytes(cmd))
	copy(frame[4+commandLength:], body.Bytes())
	return frame, nil
}

// readFrame reads one length-prefixed frame from r and returns its
// command name and the raw gob-encoded payload bytes.
func readFrame(r io.Reader) (string, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", nil, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size < commandLength {
		return "", nil, fmt.Errorf("p2p: frame shorter than command field (%d bytes)", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return "", nil, err
	}

	cmd := cmdFromBytes(body[:commandLength])
	return cmd, body[commandLength:], nil
}

func decodePayload(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("p2p: decode payload: %w", err)
	}
	return nil
}
