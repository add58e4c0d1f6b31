package proxy

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
)

func TestIsConnectRequest(t *testing.T) {
	tests := []struct {
		head string
		want bool
	}{
		{"CONNECT example.com:443 HTTP/1.1\r\n\r\n", true},
		{"CONNECT ", true},
		{"connect example.com:443 HTTP/1.1\r\n\r\n", false},
		{"GET / HTTP/1.1\r\n\r\n", false},
		{" CONNECT example.com:443 HTTP/1.1\r\n\r\n", false},
	}

	for _, tt := range tests {
		if got := isConnectRequest([]byte(tt.head)); got != tt.want {
			t.Errorf("isConnectRequest(%q) = %v, want %v", tt.head, got, tt.want)
		}
	}
}

func TestParseConnectRequest(t *testing.T) {
	tests := []struct {
		name    string
		head    string
		want    Target
		wantErr bool
	}{
		{
			name: "ipv4_literal",
			head: "CONNECT 93.184.216.34:443 HTTP/1.1\r\nHost: 93.184.216.34:443\r\n\r\n",
			want: Target{Host: "93.184.216.34", Port: 443},
		},
		{
			name: "domain",
			head: "CONNECT example.com:443 HTTP/1.1\r\n\r\n",
			want: Target{Host: "example.com", Port: 443},
		},
		{
			name: "ipv6_bracketed",
			head: "CONNECT [::1]:443 HTTP/1.1\r\n\r\n",
			want: Target{Host: "::1", Port: 443},
		},
		{name: "two_tokens", head: "CONNECT example.com:443\r\n\r\n", wantErr: true},
		{name: "no_port", head: "CONNECT example.com HTTP/1.1\r\n\r\n", wantErr: true},
		{name: "empty_host", head: "CONNECT :443 HTTP/1.1\r\n\r\n", wantErr: true},
		{name: "empty_port", head: "CONNECT example.com: HTTP/1.1\r\n\r\n", wantErr: true},
		{name: "port_zero", head: "CONNECT example.com:0 HTTP/1.1\r\n\r\n", wantErr: true},
		{name: "port_overflow", head: "CONNECT example.com:99999 HTTP/1.1\r\n\r\n", wantErr: true},
		{name: "port_garbage", head: "CONNECT example.com:https HTTP/1.1\r\n\r\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConnectRequest([]byte(tt.head))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseHTTPRequest(t *testing.T) {
	tests := []struct {
		name          string
		head          string
		wantTarget    Target
		wantRewritten string
		wantErr       bool
	}{
		{
			name:          "absolute_form",
			head:          "GET http://example.com/path?q=1 HTTP/1.1\r\nHost: example.com\r\nX: y\r\n\r\n",
			wantTarget:    Target{Host: "example.com", Port: 80},
			wantRewritten: "GET http://example.com/path?q=1 HTTP/1.1\r\nHost: example.com\r\nX: y\r\n\r\n",
		},
		{
			name:          "origin_form_with_port",
			head:          "GET /p HTTP/1.0\r\nHost: foo:8081\r\n\r\n",
			wantTarget:    Target{Host: "foo", Port: 8081},
			wantRewritten: "GET /p HTTP/1.1\r\nHost: foo:8081\r\n\r\n",
		},
		{
			name:          "origin_form_default_port",
			head:          "GET /p HTTP/1.1\r\nHost: h\r\n\r\n",
			wantTarget:    Target{Host: "h", Port: 80},
			wantRewritten: "GET /p HTTP/1.1\r\nHost: h\r\n\r\n",
		},
		{
			name:          "lowercase_host_header",
			head:          "GET /p HTTP/1.1\r\nhost: h:81\r\n\r\n",
			wantTarget:    Target{Host: "h", Port: 81},
			wantRewritten: "GET /p HTTP/1.1\r\nhost: h:81\r\n\r\n",
		},
		{
			name:          "unparseable_port_defaults_to_80",
			head:          "GET /p HTTP/1.1\r\nHost: foo:bar\r\n\r\n",
			wantTarget:    Target{Host: "foo", Port: 80},
			wantRewritten: "GET /p HTTP/1.1\r\nHost: foo:bar\r\n\r\n",
		},
		{
			name:          "bracketed_ipv6_host",
			head:          "GET /p HTTP/1.1\r\nHost: [::1]:8443\r\n\r\n",
			wantTarget:    Target{Host: "::1", Port: 8443},
			wantRewritten: "GET /p HTTP/1.1\r\nHost: [::1]:8443\r\n\r\n",
		},
		{
			name:          "body_prefix_preserved",
			head:          "POST http://h/x HTTP/1.0\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello",
			wantTarget:    Target{Host: "h", Port: 80},
			wantRewritten: "POST http://h/x HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello",
		},
		{name: "two_tokens", head: "GET /\r\n\r\n", wantErr: true},
		{name: "missing_host", head: "GET /p HTTP/1.1\r\nX: y\r\n\r\n", wantErr: true},
		{name: "empty_host", head: "GET /p HTTP/1.1\r\nHost:\r\n\r\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, rewritten, err := parseHTTPRequest([]byte(tt.head))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v %q", target, rewritten)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if target != tt.wantTarget {
				t.Fatalf("target %+v, want %+v", target, tt.wantTarget)
			}
			if string(rewritten) != tt.wantRewritten {
				t.Fatalf("rewritten:\n got %q\nwant %q", rewritten, tt.wantRewritten)
			}
		})
	}
}

// Rewriting an already origin-form HTTP/1.1 request must be a no-op.
func TestParseHTTPRequestIdempotent(t *testing.T) {
	head := []byte("GET /p HTTP/1.1\r\nHost: example.com\r\n\r\n")

	_, once, err := parseHTTPRequest(head)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(once, head) {
		t.Fatalf("first rewrite changed bytes: %q", once)
	}

	_, twice, err := parseHTTPRequest(once)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(twice, once) {
		t.Fatalf("second rewrite changed bytes: %q", twice)
	}
}

func TestTargetAddress(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Host: "example.com", Port: 443}, "example.com:443"},
		{Target{Host: "93.184.216.34", Port: 80}, "93.184.216.34:80"},
		{Target{Host: "::1", Port: 443}, "[::1]:443"},
	}
	for _, tt := range tests {
		if got := tt.target.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestReadRequestHeadAcrossSegments(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	want := "GET /p HTTP/1.1\r\nHost: h\r\n\r\nbody-prefix"
	go func() {
		_, _ = client.Write([]byte("GET /p HTTP/1.1\r\nHo"))
		_, _ = client.Write([]byte("st: h\r\n\r\nbody-prefix"))
	}()

	head, err := readRequestHead(server)
	if err != nil {
		t.Fatal(err)
	}
	if string(head) != want {
		t.Fatalf("head %q, want %q", head, want)
	}
}

func TestReadRequestHeadClientClosed(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	_ = client.Close()

	if _, err := readRequestHead(server); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadRequestHeadTruncated(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		_, _ = client.Write([]byte("GET /p HTTP/1.1\r\nHost: h"))
		_ = client.Close()
	}()

	if _, err := readRequestHead(server); !errors.Is(err, errMalformedRequest) {
		t.Fatalf("expected malformed request error, got %v", err)
	}
}

func TestReadRequestHeadTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		chunk := []byte(strings.Repeat("a", readChunkSize))
		for {
			if _, err := client.Write(chunk); err != nil {
				return
			}
		}
	}()

	if _, err := readRequestHead(server); !errors.Is(err, errHeadTooLarge) {
		t.Fatalf("expected head too large error, got %v", err)
	}
}
