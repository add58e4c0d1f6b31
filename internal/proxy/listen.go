package proxy

import (
	"context"
	"fmt"
	"net"
)

// ListenTCP listens on the given network/address. keepAliveConfig is applied
// by the runtime to every accepted TCP connection.
func ListenTCP(network, addr string, keepAliveConfig net.KeepAliveConfig) (net.Listener, error) {
	lc := net.ListenConfig{KeepAliveConfig: keepAliveConfig}

	ln, err := lc.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, addr, err)
	}

	return ln, nil
}
