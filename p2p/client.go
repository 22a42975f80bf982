package p2p

import "net"

// SendTx dials addr and relays a serialized transaction to it, for use
// by callers (such as the CLI's send command) that aren't themselves
// running a Server. from identifies the sending node in the message
// envelope, grounded on the teacher's standalone SendTx function.
func SendTx(addr, from string, txData []byte) error {
	frame, err := encodeFrame(cmdTx, txMsg{AddrFrom: from, Transaction: txData})
	if err != nil {
		return err
	}

	conn, err := net.Dial(protocol, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write(frame)
	return err
}
