package p2p

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCmdBytesRoundTrip(t *testing.T) {
	require.Equal(t, "version", cmdFromBytes(cmdBytes("version")))
	require.Equal(t, "tx", cmdFromBytes(cmdBytes("tx")))
}

func TestCmdBytesIsFixedLength(t *testing.T) {
	require.Len(t, cmdBytes("inv"), commandLength)
}

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	msg := versionMsg{Version: protocolVersion, BestHeight: 5, AddrFrom: "127.0.0.1:2001"}
	frame, err := encodeFrame(cmdVersion, msg)
	require.NoError(t, err)

	cmd, payload, err := readFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, cmdVersion, cmd)

	var decoded versionMsg
	require.NoError(t, decodePayload(payload, &decoded))
	require.Equal(t, msg, decoded)
}

func TestReadFrameRejectsShortLength(t *testing.T) {
	frame := make([]byte, 4)
	_, _, err := readFrame(bytes.NewReader(frame))
	require.Error(t, err)
}

func TestEncodeFrameCarriesMultipleMessageTypes(t *testing.T) {
	inv := invMsg{AddrFrom: "a", Kind: "block", Items: [][]byte{{1, 2, 3}}}
	frame, err := encodeFrame(cmdInv, inv)
	require.NoError(t, err)

	cmd, payload, err := readFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, cmdInv, cmd)

	var decoded invMsg
	require.NoError(t, decodePayload(payload, &decoded))
	require.Equal(t, inv, decoded)
}
