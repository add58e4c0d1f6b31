package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
)

// Server accepts inbound connections and relays them through the upstream
// SOCKS5 endpoint, speaking HTTP proxy semantics to the client or acting as
// a raw L4 relay depending on Config.Forward.
type Server struct {
	cfg Config
	log *slog.Logger
}

func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, log: log}
}

// Serve accepts connections on ln until the listener is closed. Each
// connection is handled in its own goroutine; handlers share nothing but the
// immutable config. Accept errors other than listener closure are logged and
// the loop continues.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		s.log.Info("new connection", "remote", conn.RemoteAddr())
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With("remote", conn.RemoteAddr())

	var err error
	if s.cfg.Forward {
		err = s.handleForward(ctx, conn, log)
	} else {
		err = s.handleHTTP(ctx, conn, log)
	}
	if err != nil {
		log.Error("client handling error", "error", err)
	}
}

func (s *Server) pump(ctx context.Context, client, upstream net.Conn, log *slog.Logger) error {
	fromClient, fromUpstream, err := CopyBidirectional(ctx, client, upstream)
	log.Debug("connection finished",
		"bytes_from_client", fromClient,
		"bytes_from_upstream", fromUpstream)
	if err != nil {
		return err
	}
	return nil
}
