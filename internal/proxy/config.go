package proxy

import (
	"log/slog"

	"github.com/dzvon/http2socks/internal/dialer"
)

type Config struct {
	// SocksAddr is the upstream SOCKS5 server address (host:port).
	SocksAddr string

	// Forward switches the server to the raw L4 relay mode: inbound bytes
	// go straight to SocksAddr with no HTTP interpretation.
	Forward bool

	// Dialer reaches the data path: a SOCKS5 proxy dialer for per-request
	// targets in HTTP mode, a direct dialer to SocksAddr in forward mode.
	Dialer dialer.Dialer

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}
