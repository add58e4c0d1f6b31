package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
)

// handleForward relays raw TCP bytes between the client and the SOCKS5
// endpoint. The client is presumed to speak SOCKS5 itself; no bytes are
// read, written, or interpreted by the relay.
func (s *Server) handleForward(ctx context.Context, client net.Conn, log *slog.Logger) error {
	upstream, err := s.cfg.Dialer.DialContext(ctx, "tcp", s.cfg.SocksAddr)
	if err != nil {
		return fmt.Errorf("connect socks5 %s: %w", s.cfg.SocksAddr, err)
	}
	defer upstream.Close()

	log.Debug("forwarding connection", "upstream", s.cfg.SocksAddr)
	return s.pump(ctx, client, upstream, log)
}
