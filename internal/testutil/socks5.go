package testutil

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/dzvon/http2socks/internal/socks5"
)

// StartSOCKS5Server starts a loopback SOCKS5 server that serves no-auth
// CONNECT requests by dialing the requested address and relaying bytes. It
// accepts connections until the listener is closed.
func StartSOCKS5Server(t *testing.T, ctx context.Context) net.Listener {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				_ = HandleSOCKS5Connect(ctx, c)
			}()
		}
	}()

	return ln
}

// HandleSOCKS5Connect serves one no-auth SOCKS5 CONNECT exchange on c,
// dialing the requested address and relaying until either side closes.
func HandleSOCKS5Connect(ctx context.Context, c net.Conn) error {
	if err := socks5.ServerNegotiateNoAuth(c); err != nil {
		return err
	}

	req, err := socks5.ServerReadRequest(c)
	if err != nil {
		return err
	}
	if req.Cmd != socks5.CmdConnect {
		socks5.WriteCommandNotSupportedReply(c, req.Atyp)
		return nil
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		socks5.WriteConnectionRefusedReply(c, req.Atyp)
		return nil
	}
	defer dst.Close()

	if err := socks5.WriteSuccessReply(c, dst.LocalAddr()); err != nil {
		return err
	}

	go func() {
		_, _ = io.Copy(dst, c)
		_ = dst.Close()
	}()
	_, _ = io.Copy(c, dst)

	return nil
}
