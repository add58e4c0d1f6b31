package dialer

// Package dialer provides the outbound dialing implementations used by
// http2socks.
//
// Dialers implement a small interface (DialContext) and are used by the
// listener-side handlers to reach the upstream SOCKS5 endpoint: directly in
// forward mode, or with a CONNECT handshake for a per-request target in HTTP
// mode.
