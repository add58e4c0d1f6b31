package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
)

var (
	respConnectionEstablished = []byte("HTTP/1.1 200 Connection Established\r\n\r\n")
	respBadRequest            = []byte("HTTP/1.1 400 Bad Request\r\n\r\n")
)

// handleHTTP serves one proxy request on client: a CONNECT tunnel or a
// single absolute/origin-form request, relayed through the upstream SOCKS5
// server. One request per connection.
func (s *Server) handleHTTP(ctx context.Context, client net.Conn, log *slog.Logger) error {
	head, err := readRequestHead(client)
	switch {
	case errors.Is(err, io.EOF):
		// Client closed before sending a request.
		return nil
	case errors.Is(err, errMalformedRequest), errors.Is(err, errHeadTooLarge):
		_, _ = client.Write(respBadRequest)
		return err
	case err != nil:
		// Transport failure, not client input: close without a response.
		return err
	}

	if isConnectRequest(head) {
		return s.handleConnect(ctx, client, head, log)
	}
	return s.handleRequest(ctx, client, head, log)
}

// handleConnect tunnels a CONNECT request. The inbound CONNECT bytes are
// consumed here and never forwarded upstream.
func (s *Server) handleConnect(ctx context.Context, client net.Conn, head []byte, log *slog.Logger) error {
	target, err := parseConnectRequest(head)
	if err != nil {
		_, _ = client.Write(respBadRequest)
		return fmt.Errorf("parse connect: %w", err)
	}

	upstream, err := s.cfg.Dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return fmt.Errorf("connect %s: %w", target.Address(), err)
	}
	defer upstream.Close()

	if _, err := client.Write(respConnectionEstablished); err != nil {
		return fmt.Errorf("write connection established: %w", err)
	}

	log.Debug("tunnel established", "target", target.Address())
	return s.pump(ctx, client, upstream, log)
}

// handleRequest relays a non-CONNECT request: the request line is rewritten,
// the rest of the head (headers plus any body prefix) is forwarded verbatim,
// and the streams are pumped until both sides finish.
func (s *Server) handleRequest(ctx context.Context, client net.Conn, head []byte, log *slog.Logger) error {
	target, rewritten, err := parseHTTPRequest(head)
	if err != nil {
		_, _ = client.Write(respBadRequest)
		return fmt.Errorf("parse request: %w", err)
	}

	upstream, err := s.cfg.Dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return fmt.Errorf("connect %s: %w", target.Address(), err)
	}
	defer upstream.Close()

	if _, err := upstream.Write(rewritten); err != nil {
		return fmt.Errorf("write request upstream: %w", err)
	}

	log.Debug("request forwarded", "target", target.Address())
	return s.pump(ctx, client, upstream, log)
}
