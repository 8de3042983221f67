package httpengine

import (
	"context"
	"io"
	"net/http"
	"time"
)

// H2Client forces negotiation onto HTTP/2 over TLS.
type H2Client struct {
	ConnectTimeout time.Duration
	RWTimeout      time.Duration
	Proxy          string
}

func NewH2Client(connectTimeout, rwTimeout time.Duration) *H2Client {
	return &H2Client{ConnectTimeout: connectTimeout, RWTimeout: rwTimeout}
}

func (c *H2Client) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.RWTimeout
	if req.RequestTimeout > 0 {
		timeout = req.RequestTimeout
	}
	proxy := c.Proxy
	if req.ProxyURL != "" {
		proxy = req.ProxyURL
	}
	client := &http.Client{
		Transport:     createHTTP2Transport(c.ConnectTimeout, proxy),
		Timeout:       timeout,
		CheckRedirect: noRedirectPolicy(req.Redirects),
	}
	return doStructured(ctx, client, req)
}

// H2CClient speaks HTTP/2 over a plaintext connection, the conventional Go
// h2c pattern used to probe intermediaries that speak cleartext HTTP/2.
type H2CClient struct {
	ConnectTimeout time.Duration
	RWTimeout      time.Duration
	Proxy          string
}

func NewH2CClient(connectTimeout, rwTimeout time.Duration) *H2CClient {
	return &H2CClient{ConnectTimeout: connectTimeout, RWTimeout: rwTimeout}
}

func (c *H2CClient) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.RWTimeout
	if req.RequestTimeout > 0 {
		timeout = req.RequestTimeout
	}
	proxy := c.Proxy
	if req.ProxyURL != "" {
		proxy = req.ProxyURL
	}
	client := &http.Client{
		Transport:     createH2CTransport(c.ConnectTimeout, proxy),
		Timeout:       timeout,
		CheckRedirect: noRedirectPolicy(req.Redirects),
	}
	return doStructured(ctx, client, req)
}

// H3Client speaks HTTP/3 over a QUIC/UDP session.
type H3Client struct {
	RWTimeout time.Duration
}

func NewH3Client(rwTimeout time.Duration) *H3Client {
	return &H3Client{RWTimeout: rwTimeout}
}

func (c *H3Client) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.RWTimeout
	if req.RequestTimeout > 0 {
		timeout = req.RequestTimeout
	}
	transport := createHTTP3Transport()
	defer transport.Close()
	client := &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: noRedirectPolicy(req.Redirects),
	}
	return doStructured(ctx, client, req)
}

func doStructured(ctx context.Context, client *http.Client, req *Request) (*Response, error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(req.URL, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrKindTransport, req.URL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data, Proto: resp.Proto}, nil
}
