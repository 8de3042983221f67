package httpengine

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pyneda/trailscan/lib"
)

// rawSender performs connection setup (+ TLS) and a single blocking write of
// attacker-controlled bytes, deliberately bypassing net/http so malformed
// framing (stray CRLFs, invalid chunk trailers) reaches the wire unmodified.
type rawSender struct {
	connectTimeout time.Duration
	rwTimeout      time.Duration
	proxy          string
}

func (s rawSender) send(ctx context.Context, target lib.URLComponents, data []byte) error {
	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)
	dialer := &net.Dialer{Timeout: s.connectTimeout}

	var conn net.Conn
	var err error
	if s.proxy != "" {
		conn, err = dialThroughProxy(ctx, dialer, s.proxy, addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return classifyTransportError(addr, err)
	}
	if target.UseTLS {
		tlsConn := tls.Client(conn, &tls.Config{InsecureSkipVerify: true, ServerName: target.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return classifyTransportError(addr, err)
		}
		conn = tlsConn
	}
	defer conn.Close()

	deadline := time.Now().Add(s.rwTimeout)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return newError(ErrKindTransport, addr, err)
	}
	if _, err := conn.Write(data); err != nil {
		return classifyTransportError(addr, err)
	}

	// Best-effort drain of whatever the target sends back, within a short
	// deadline; the response is deliberately discarded and never parsed.
	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 4096)
	_, _ = conn.Read(buf)
	return nil
}

// dialThroughProxy opens a connection to proxy (a full URL, e.g.
// "http://host:port") and issues an HTTP CONNECT to targetAddr, handing back
// the tunnelled connection. Used so the raw-byte send path honors --proxy
// the same way the structured clients do.
func dialThroughProxy(ctx context.Context, dialer *net.Dialer, proxy, targetAddr string) (net.Conn, error) {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy url %q: %w", proxy, err)
	}
	conn, err := dialer.DialContext(ctx, "tcp", proxyURL.Host)
	if err != nil {
		return nil, err
	}
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: targetAddr},
		Host:   targetAddr,
		Header: make(http.Header),
	}
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("proxy CONNECT to %s failed: %s", targetAddr, resp.Status)
	}
	return conn, nil
}
