package proxy

import (
	"context"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

type closeWriter interface {
	CloseWrite() error
}

// CopyBidirectional pumps bytes between left and right until both directions
// reach end-of-stream or fail, returning the byte counts copied
// left-to-right and right-to-left.
//
// When one direction hits EOF its peer's write side is half-closed so the
// peer observes end-of-stream while the opposite direction keeps running. A
// transport error or context cancellation closes both connections to unblock
// the remaining copy.
func CopyBidirectional(ctx context.Context, left, right net.Conn) (int64, int64, error) {
	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	var leftToRight, rightToLeft int64

	g := errgroup.Group{}
	g.Go(func() error {
		err := copyAndHalfClose(right, left, &leftToRight)
		if err != nil {
			closeBoth()
		}
		return err
	})
	g.Go(func() error {
		err := copyAndHalfClose(left, right, &rightToLeft)
		if err != nil {
			closeBoth()
		}
		return err
	})

	err := g.Wait()
	return leftToRight, rightToLeft, err
}

// copyAndHalfClose copies src into dst until EOF or error, then shuts down
// dst's write side so its peer observes end-of-stream. Connections without
// write-side shutdown are fully closed instead.
func copyAndHalfClose(dst, src net.Conn, copied *int64) error {
	n, err := io.Copy(dst, src)
	*copied = n

	if cw, ok := dst.(closeWriter); ok {
		_ = cw.CloseWrite()
	} else {
		_ = dst.Close()
	}
	return err
}
