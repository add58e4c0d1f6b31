package dialer

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds the outbound TCP connect. Zero means no timeout.
	DialTimeout time.Duration

	// NegotiationTimeout bounds the SOCKS5 handshake on a fresh upstream
	// connection. Zero means no timeout.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig
}
