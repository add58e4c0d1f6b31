package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

const (
	// readChunkSize is the per-read buffer for the inbound request head.
	readChunkSize = 4096

	// maxHeadBytes caps how much is buffered while waiting for the end of
	// the request head.
	maxHeadBytes = 64 << 10
)

var (
	errMalformedRequest = errors.New("malformed request")
	errHeadTooLarge     = errors.New("request head too large")

	crlf       = []byte("\r\n")
	headEnd    = []byte("\r\n\r\n")
	connectPfx = []byte("CONNECT")
)

// Target identifies the destination a client wants to reach through the
// upstream SOCKS5 server. Host is a textual IP literal or a DNS name,
// forwarded verbatim; it is never resolved locally.
type Target struct {
	Host string
	Port uint16
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

// readRequestHead reads from conn until the CRLF-CRLF terminator arrives,
// returning everything read so far, including any body prefix that shared a
// segment with the headers. Returns io.EOF if the client closed before
// sending anything.
func readRequestHead(conn net.Conn) ([]byte, error) {
	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if bytes.Contains(buf, headEnd) {
			return buf, nil
		}

		switch {
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: truncated head", errMalformedRequest)
		case err != nil:
			return nil, fmt.Errorf("read request head: %w", err)
		case len(buf) >= maxHeadBytes:
			return nil, errHeadTooLarge
		}
	}
}

// isConnectRequest reports whether the request head starts a CONNECT tunnel
// request. The comparison is case-sensitive and anchored at offset 0.
func isConnectRequest(head []byte) bool {
	return bytes.HasPrefix(head, connectPfx)
}

// parseConnectRequest extracts the tunnel target from a CONNECT request
// line of the form "CONNECT host:port HTTP/1.x".
func parseConnectRequest(head []byte) (Target, error) {
	line, _, ok := bytes.Cut(head, crlf)
	if !ok {
		return Target{}, fmt.Errorf("%w: no request line", errMalformedRequest)
	}

	parts := strings.Fields(string(line))
	if len(parts) != 3 {
		return Target{}, fmt.Errorf("%w: request line %q", errMalformedRequest, string(line))
	}

	authority := parts[1]
	i := strings.LastIndexByte(authority, ':')
	if i <= 0 || i == len(authority)-1 {
		return Target{}, fmt.Errorf("%w: authority %q", errMalformedRequest, authority)
	}

	port, err := strconv.ParseUint(authority[i+1:], 10, 16)
	if err != nil || port == 0 {
		return Target{}, fmt.Errorf("%w: port %q", errMalformedRequest, authority[i+1:])
	}

	return Target{Host: trimBrackets(authority[:i]), Port: uint16(port)}, nil
}

// parseHTTPRequest extracts the target from an absolute- or origin-form
// request and rewrites the request line to "<METHOD> <URI> HTTP/1.1". The
// URI token and every byte after the first CRLF are preserved verbatim.
func parseHTTPRequest(head []byte) (Target, []byte, error) {
	line, rest, ok := bytes.Cut(head, crlf)
	if !ok {
		return Target{}, nil, fmt.Errorf("%w: no request line", errMalformedRequest)
	}

	parts := strings.Fields(string(line))
	if len(parts) != 3 {
		return Target{}, nil, fmt.Errorf("%w: request line %q", errMalformedRequest, string(line))
	}
	method, uri := parts[0], parts[1]

	authority, err := hostHeaderValue(head)
	if err != nil {
		return Target{}, nil, err
	}

	target := Target{Host: authority, Port: 80}
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		target.Host = authority[:i]
		if p, err := strconv.ParseUint(authority[i+1:], 10, 16); err == nil && p > 0 {
			target.Port = uint16(p)
		}
	}
	target.Host = trimBrackets(target.Host)
	if target.Host == "" || len(target.Host) > 255 {
		return Target{}, nil, fmt.Errorf("%w: host %q", errMalformedRequest, target.Host)
	}

	rewritten := make([]byte, 0, len(head))
	rewritten = append(rewritten, method...)
	rewritten = append(rewritten, ' ')
	rewritten = append(rewritten, uri...)
	rewritten = append(rewritten, " HTTP/1.1\r\n"...)
	rewritten = append(rewritten, rest...)

	return target, rewritten, nil
}

// hostHeaderValue returns the trimmed value of the first Host header. The
// header name match is case-insensitive; the value is everything after the
// first ':'.
func hostHeaderValue(head []byte) (string, error) {
	headers := head
	if i := bytes.Index(head, headEnd); i >= 0 {
		headers = head[:i]
	}

	lines := bytes.Split(headers, crlf)
	for _, l := range lines[1:] {
		line := string(l)
		if len(line) < 5 || !strings.EqualFold(line[:5], "host:") {
			continue
		}
		return strings.TrimSpace(line[5:]), nil
	}
	return "", fmt.Errorf("%w: missing Host header", errMalformedRequest)
}

// trimBrackets strips the RFC 3986 brackets around an IPv6 literal so the
// address can be classified and re-encoded for the SOCKS5 request.
func trimBrackets(host string) string {
	if len(host) >= 2 && host[0] == '[' && host[len(host)-1] == ']' {
		return host[1 : len(host)-1]
	}
	return host
}
