package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Profile names the TLS ClientHello presented to remote hosts.
type Profile string

const (
	ProfileGo      Profile = "go" // crypto/tls, no spoofing
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileRandom  Profile = "random"
)

// ParseProfile maps a configuration value to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(s); p {
	case "":
		return ProfileGo, nil
	case ProfileGo, ProfileChrome, ProfileFirefox, ProfileSafari, ProfileRandom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tls profile %q", s)
	}
}

func helloFor(p Profile) (utls.ClientHelloID, bool) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, true
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, true
	case ProfileSafari:
		return utls.HelloIOS_Auto, true
	case ProfileRandom:
		return utls.HelloRandomizedALPN, true
	}
	return utls.ClientHelloID{}, false
}

// NewTransport returns a clone of http.DefaultTransport for ProfileGo. Other
// profiles get a RoundTripper that handshakes with utls using the matching
// ClientHello and then speaks whichever of h2 or http/1.1 the server chose.
// Those connections are dialed directly, ignoring proxy settings.
func NewTransport(p Profile) (http.RoundTripper, error) {
	if p == "" {
		p = ProfileGo
	}
	if p == ProfileGo {
		return http.DefaultTransport.(*http.Transport).Clone(), nil
	}

	hello, ok := helloFor(p)
	if !ok {
		return nil, fmt.Errorf("unknown tls profile %q", p)
	}
	return newUTLSTransport(hello, nil), nil
}

// utlsTransport routes requests to an HTTP/1.1 or HTTP/2 transport
// depending on the ALPN protocol each host negotiated. http.Transport cannot
// see ALPN on a utls connection, so the first handshake with a host is made
// here and the connection handed to whichever transport fits.
type utlsTransport struct {
	hello  utls.ClientHelloID
	roots  *x509.CertPool // nil means the system pool
	dialer net.Dialer

	h1 *http.Transport
	h2 *http2.Transport

	mu      sync.Mutex
	protos  map[string]string // addr -> negotiated protocol
	pending map[string][]net.Conn
}

func newUTLSTransport(hello utls.ClientHelloID, roots *x509.CertPool) *utlsTransport {
	t := &utlsTransport{
		hello:   hello,
		roots:   roots,
		dialer:  net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second},
		protos:  make(map[string]string),
		pending: make(map[string][]net.Conn),
	}

	h1 := http.DefaultTransport.(*http.Transport).Clone()
	h1.Proxy = nil
	h1.DialTLSContext = t.conn
	t.h1 = h1
	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return t.conn(ctx, network, addr)
		},
	}
	return t
}

func (t *utlsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	proto, err := t.protocol(req.Context(), hostPort(req.URL))
	if err != nil {
		return nil, err
	}
	if proto == http2.NextProtoTLS {
		return t.h2.RoundTrip(req)
	}
	return t.h1.RoundTrip(req)
}

func (t *utlsTransport) CloseIdleConnections() {
	t.h1.CloseIdleConnections()
	t.h2.CloseIdleConnections()

	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, conns := range t.pending {
		for _, c := range conns {
			_ = c.Close()
		}
		delete(t.pending, addr)
	}
}

// protocol returns the protocol addr negotiates. The first call for an addr
// handshakes and parks the connection for the transport that will use it.
func (t *utlsTransport) protocol(ctx context.Context, addr string) (string, error) {
	t.mu.Lock()
	p, ok := t.protos[addr]
	t.mu.Unlock()
	if ok {
		return p, nil
	}

	conn, err := t.handshake(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	p = conn.ConnectionState().NegotiatedProtocol

	t.mu.Lock()
	t.protos[addr] = p
	t.pending[addr] = append(t.pending[addr], conn)
	t.mu.Unlock()
	return p, nil
}

// conn hands out a parked connection for addr, or handshakes a new one.
func (t *utlsTransport) conn(ctx context.Context, network, addr string) (net.Conn, error) {
	t.mu.Lock()
	if conns := t.pending[addr]; len(conns) > 0 {
		c := conns[len(conns)-1]
		t.pending[addr] = conns[:len(conns)-1]
		t.mu.Unlock()
		return c, nil
	}
	t.mu.Unlock()
	return t.handshake(ctx, network, addr)
}

func (t *utlsTransport) handshake(ctx context.Context, network, addr string) (*utls.UConn, error) {
	raw, err := t.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	conn := utls.UClient(raw, &utls.Config{ServerName: host, RootCAs: t.roots}, t.hello)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("utls handshake with %s: %w", host, err)
	}
	return conn, nil
}

func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
