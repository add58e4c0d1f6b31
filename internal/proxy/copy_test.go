package proxy

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func tcpPair(t *testing.T) (*net.TCPConn, *net.TCPConn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		c, err := ln.Accept()
		ch <- accepted{c, err}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	a := <-ch
	if a.err != nil {
		_ = client.Close()
		t.Fatal(a.err)
	}

	return client.(*net.TCPConn), a.conn.(*net.TCPConn)
}

func TestCopyBidirectional(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clientSide, leftEnd := tcpPair(t)
	rightEnd, remoteSide := tcpPair(t)
	defer clientSide.Close()
	defer remoteSide.Close()

	type result struct {
		leftToRight int64
		rightToLeft int64
		err         error
	}
	done := make(chan result, 1)
	go func() {
		ltr, rtl, err := CopyBidirectional(ctx, leftEnd, rightEnd)
		done <- result{ltr, rtl, err}
	}()

	if _, err := clientSide.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(remoteSide, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "ping" {
		t.Fatalf("remote got %q", buf)
	}

	if _, err := remoteSide.Write([]byte("pong!")); err != nil {
		t.Fatal(err)
	}
	buf = make([]byte, 5)
	if _, err := io.ReadFull(clientSide, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "pong!" {
		t.Fatalf("client got %q", buf)
	}

	// Half-close: the client stops sending, the remote must observe EOF
	// while the reverse direction stays usable until the remote closes.
	if err := clientSide.CloseWrite(); err != nil {
		t.Fatal(err)
	}
	if b, err := io.ReadAll(remoteSide); err != nil || len(b) != 0 {
		t.Fatalf("remote expected clean EOF, got %q, %v", b, err)
	}

	_ = remoteSide.Close()
	if b, err := io.ReadAll(clientSide); err != nil || len(b) != 0 {
		t.Fatalf("client expected clean EOF, got %q, %v", b, err)
	}

	r := <-done
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.leftToRight != 4 || r.rightToLeft != 5 {
		t.Fatalf("counts %d/%d, want 4/5", r.leftToRight, r.rightToLeft)
	}
}

func TestCopyBidirectionalContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	clientSide, leftEnd := tcpPair(t)
	rightEnd, remoteSide := tcpPair(t)
	defer clientSide.Close()
	defer remoteSide.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = CopyBidirectional(ctx, leftEnd, rightEnd)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not return after context cancellation")
	}
}
