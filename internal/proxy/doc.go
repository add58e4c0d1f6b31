package proxy

// Package proxy implements the http2socks listener side.
//
// It contains the accept loop, the per-connection handlers for HTTP proxy
// mode (CONNECT tunneling and absolute/origin-form rewriting) and raw TCP
// forward mode, the byte-level request parser, and shared connection
// plumbing such as keepalive listeners and bidirectional copy.
