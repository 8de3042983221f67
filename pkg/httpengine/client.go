package httpengine

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pyneda/trailscan/lib"
)

// applyPort rewrites the URL's authority to use an overridden port, used by
// TrailMerge when the protocol detector finds an alternate HTTP/3 port via
// Alt-Svc discovery.
func applyPort(rawURL string, port *int) (string, error) {
	if port == nil {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	parsed.Host = parsed.Hostname() + ":" + strconv.Itoa(*port)
	return parsed.String(), nil
}

func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := applyPort(req.URL, req.Port)
	if err != nil {
		return nil, newError(ErrKindInvalidTarget, req.URL, err)
	}

	var body io.Reader
	if len(req.RequestBody) > 0 {
		body = strings.NewReader(string(req.RequestBody))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, newError(ErrKindInvalidTarget, req.URL, err)
	}

	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if len(req.Trailers) > 0 {
		httpReq.Trailer = make(http.Header)
		var names []string
		for key, values := range req.Trailers {
			names = append(names, key)
			for _, v := range values {
				httpReq.Trailer.Add(key, v)
			}
		}
		httpReq.Header.Set("Trailer", strings.Join(names, ", "))
	}
	return httpReq, nil
}

func classifyTransportError(target string, err error) error {
	if err == nil {
		return nil
	}
	if timeoutErr, ok := err.(interface{ Timeout() bool }); ok && timeoutErr.Timeout() {
		return newError(ErrKindTimeout, target, err)
	}
	return newError(ErrKindTransport, target, err)
}

func noRedirectPolicy(follow bool) func(req *http.Request, via []*http.Request) error {
	if follow {
		return nil
	}
	return func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
}

// H1Client speaks plain HTTP/1.1 (optionally over TLS) and is the only
// client exposing SendRaw, required for TrailSmug's malformed payloads.
type H1Client struct {
	ConnectTimeout time.Duration
	RWTimeout      time.Duration
	Proxy          string
}

func NewH1Client(connectTimeout, rwTimeout time.Duration) *H1Client {
	return &H1Client{ConnectTimeout: connectTimeout, RWTimeout: rwTimeout}
}

func (c *H1Client) client(req *Request) *http.Client {
	timeout := c.RWTimeout
	if req.RequestTimeout > 0 {
		timeout = req.RequestTimeout
	}
	proxy := c.Proxy
	if req.ProxyURL != "" {
		proxy = req.ProxyURL
	}
	return &http.Client{
		Transport:     createHTTP1Transport(c.ConnectTimeout, proxy),
		Timeout:       timeout,
		CheckRedirect: noRedirectPolicy(req.Redirects),
	}
}

func (c *H1Client) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client(req).Do(httpReq)
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

// SendRaw opens a connection (TLS if the target scheme is https), writes the
// given bytes verbatim and returns — it never parses a response. This is the
// entrypoint malformed smuggling payloads require, since net/http refuses to
// emit bytes that violate RFC framing.
func (c *H1Client) SendRaw(ctx context.Context, target string, data []byte) error {
	components, err := lib.ParseURLComponents(target)
	if err != nil {
		return newError(ErrKindInvalidTarget, target, err)
	}
	sender := rawSender{connectTimeout: c.ConnectTimeout, rwTimeout: c.RWTimeout, proxy: c.Proxy}
	return sender.send(ctx, components, data)
}
