package httpengine

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

func proxyFunc(proxy string) func(*http.Request) (*url.URL, error) {
	if proxy == "" {
		return http.ProxyFromEnvironment
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(proxyURL)
}

// createHTTP1Transport builds the net/http transport used by H1Client,
// using the client's connect timeout for both the TCP dial and the TLS
// handshake.
func createHTTP1Transport(connectTimeout time.Duration, proxy string) *http.Transport {
	return &http.Transport{
		Proxy: proxyFunc(proxy),
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   connectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			Renegotiation:      tls.RenegotiateOnceAsClient,
			InsecureSkipVerify: true,
		},
	}
}

// createHTTP2Transport forces negotiation onto HTTP/2 over TLS, so a target
// that silently downgrades is observable rather than papered over by the
// standard library's opportunistic upgrade. http2.Transport has no Proxy
// field of its own, so a proxy is honored by tunnelling DialTLS through a
// CONNECT request first.
func createHTTP2Transport(connectTimeout time.Duration, proxy string) *http2.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	return &http2.Transport{
		AllowHTTP: false,
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			if cfg == nil {
				cfg = &tls.Config{}
			}
			cfg.NextProtos = []string{"h2"}
			conn, err := dialMaybeProxied(context.Background(), dialer, proxy, addr)
			if err != nil {
				return nil, err
			}
			tlsConn := tls.Client(conn, cfg)
			if err := tlsConn.Handshake(); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		TLSClientConfig: &tls.Config{
			Renegotiation:      tls.RenegotiateOnceAsClient,
			InsecureSkipVerify: true,
		},
	}
}

// dialMaybeProxied dials addr directly, or tunnels through proxy via CONNECT
// when one is configured.
func dialMaybeProxied(ctx context.Context, dialer *net.Dialer, proxy, addr string) (net.Conn, error) {
	if proxy == "" {
		return dialer.DialContext(ctx, "tcp", addr)
	}
	return dialThroughProxy(ctx, dialer, proxy, addr)
}

// createH2CTransport is the conventional Go h2c pattern: the same HTTP/2
// transport, but DialTLS dials a plaintext TCP connection instead of TLS.
func createH2CTransport(connectTimeout time.Duration, proxy string) *http2.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	return &http2.Transport{
		AllowHTTP: true,
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			return dialMaybeProxied(context.Background(), dialer, proxy, addr)
		},
	}
}

// createHTTP3Transport builds a QUIC-backed round tripper.
func createHTTP3Transport() *http3.RoundTripper {
	return &http3.RoundTripper{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
		EnableDatagrams: true,
	}
}
