package socks5

import (
	"fmt"
	"net"

	txsocks5 "github.com/txthinking/socks5"
)

// ClientDial performs the no-auth negotiation and a CONNECT request for
// address on an already-open connection to a SOCKS5 server. On return the
// connection carries opaque end-to-end traffic.
func ClientDial(conn net.Conn, address string) error {
	if err := ClientNegotiate(conn); err != nil {
		return err
	}
	if err := ClientConnect(conn, address); err != nil {
		return err
	}
	return nil
}

// ClientNegotiate offers NO AUTHENTICATION REQUIRED and verifies the server
// selects it.
func ClientNegotiate(conn net.Conn) error {
	methods := []byte{txsocks5.MethodNone}

	if _, err := txsocks5.NewNegotiationRequest(methods).WriteTo(conn); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(conn)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	if neg.Method != txsocks5.MethodNone {
		return fmt.Errorf("unsupported negotiation method: 0x%02x", neg.Method)
	}
	return nil
}

// ClientConnect issues CMD=CONNECT for address (host:port) and reads the
// reply, including the variable-width bound address, which is discarded.
func ClientConnect(conn net.Conn, address string) error {
	if host, _, err := net.SplitHostPort(address); err == nil && len(host) > 255 {
		return fmt.Errorf("connect %q: domain name longer than 255 bytes", address)
	}

	atyp, dstAddr, dstPort, err := txsocks5.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("parse address %q: %w", address, err)
	}
	if atyp == txsocks5.ATYPDomain {
		dstAddr = dstAddr[1:]
	}

	if _, err := txsocks5.NewRequest(txsocks5.CmdConnect, atyp, dstAddr, dstPort).WriteTo(conn); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	rep, err := txsocks5.NewReplyFrom(conn)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if rep.Rep != txsocks5.RepSuccess {
		return fmt.Errorf("connect failed: rep 0x%02x", rep.Rep)
	}
	return nil
}
