package socks5

// Package socks5 provides the small SOCKS5 handshake layer used by
// http2socks.
//
// It wraps the low-level protocol types in github.com/txthinking/socks5: the
// client side performs the no-auth negotiation and CONNECT exchange against
// the upstream server, and the server side provides just enough of the
// opposite half for loopback tests.
//
// Only CMD=CONNECT with METHOD=NO AUTHENTICATION REQUIRED is supported;
// BIND, UDP ASSOCIATE, and authenticated negotiation are out of scope.
