package httpengine

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pyneda/trailscan/lib"
	"github.com/sourcegraph/conc/pool"
)

// Protocol identifies one of the wire protocols a probe can target.
type Protocol string

const (
	H1  Protocol = "HTTP/1.1"
	H2  Protocol = "HTTP/2"
	H2C Protocol = "H2C"
	H3  Protocol = "HTTP/3"
)

// ProtocolCandidate is a detected protocol plus an optional port override,
// used when HTTP/3 is advertised on a non-default port via Alt-Svc.
type ProtocolCandidate struct {
	Protocol Protocol
	Port     *int
}

// DetectProtocols returns the protocols a target appears to speak. H1 is
// always a candidate and is not probed. For a TLS target, H2 (via ALPN) and
// H3 (via Alt-Svc) are probed concurrently. For a plaintext target, H2 and H3
// are not checked and H2C is offered unprobed instead, mirroring the
// conventional cleartext-upgrade story.
func DetectProtocols(ctx context.Context, target string, timeout time.Duration) ([]ProtocolCandidate, error) {
	components, err := lib.ParseURLComponents(target)
	if err != nil {
		return nil, newError(ErrKindInvalidTarget, target, err)
	}

	candidates := []ProtocolCandidate{{Protocol: H1}}

	detectors := pool.New().WithMaxGoroutines(3)
	results := make(chan ProtocolCandidate, 3)

	if components.UseTLS {
		detectors.Go(func() {
			if negotiatesALPN(components, timeout, "h2") {
				results <- ProtocolCandidate{Protocol: H2}
			}
		})
		detectors.Go(func() {
			if port, ok := discoverAltSvcH3(ctx, target, timeout); ok {
				if port != 0 {
					altPort := port
					results <- ProtocolCandidate{Protocol: H3, Port: &altPort}
				} else {
					results <- ProtocolCandidate{Protocol: H3}
				}
			}
		})
	} else {
		candidates = append(candidates, ProtocolCandidate{Protocol: H2C})
	}

	detectors.Wait()
	close(results)
	for c := range results {
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// negotiatesALPN performs a bare TLS handshake and inspects the negotiated
// ALPN protocol to decide whether the target speaks HTTP/2.
func negotiatesALPN(components lib.URLComponents, timeout time.Duration, want string) bool {
	addr := net.JoinHostPort(components.Host, strconv.Itoa(components.Port))
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         components.Host,
		NextProtos:         []string{"h2", "http/1.1"},
	})
	if err != nil {
		return false
	}
	defer conn.Close()
	return conn.ConnectionState().NegotiatedProtocol == want
}

// discoverAltSvcH3 issues a plain HEAD request and checks for an
// `Alt-Svc: h3=":<port>"` response header, deriving the HTTP/3 candidate
// port rather than assuming the default 443/UDP.
func discoverAltSvcH3(ctx context.Context, target string, timeout time.Duration) (int, bool) {
	client := &http.Client{
		Transport: createHTTP1Transport(timeout, ""),
		Timeout:   timeout,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, false
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	altSvc := resp.Header.Get("Alt-Svc")
	if altSvc == "" {
		return 0, false
	}
	return parseAltSvcH3Port(altSvc)
}

// parseAltSvcH3Port extracts the port from an Alt-Svc entry advertising h3,
// e.g. `h3=":8443"; ma=3600, h3-29=":443"`.
func parseAltSvcH3Port(header string) (int, bool) {
	const marker = `h3="`
	idx := strings.Index(header, marker)
	if idx < 0 {
		return 0, false
	}
	rest := header[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return 0, false
	}
	entry := rest[:end]
	colon := strings.Index(entry, ":")
	if colon < 0 {
		return 0, true
	}
	port, err := strconv.Atoi(entry[colon+1:])
	if err != nil {
		return 0, true
	}
	return port, true
}
