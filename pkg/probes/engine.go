package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/pyneda/trailscan/pkg/httpengine"
)

// Detector discovers which protocols a target speaks. Implemented directly
// by httpengine.DetectProtocols in production and faked in tests.
type Detector interface {
	DetectProtocols(ctx context.Context, target string, timeout time.Duration) ([]httpengine.ProtocolCandidate, error)
}

type engineDetector struct{}

func (engineDetector) DetectProtocols(ctx context.Context, target string, timeout time.Duration) ([]httpengine.ProtocolCandidate, error) {
	return httpengine.DetectProtocols(ctx, target, timeout)
}

// DefaultDetector is the production Detector backed by the real HTTP engine.
var DefaultDetector Detector = engineDetector{}

// Sender dispatches a structured request to the client matching proto.
type Sender interface {
	SendRequest(ctx context.Context, proto httpengine.Protocol, req *httpengine.Request) (*httpengine.Response, error)
}

// multiProtocolSender wires one client per protocol, built once per scan and
// shared read-only across every concurrent probe invocation.
type multiProtocolSender struct {
	h1  *httpengine.H1Client
	h2  *httpengine.H2Client
	h2c *httpengine.H2CClient
	h3  *httpengine.H3Client
}

// NewEngineSender builds the production Sender with the given connect/RW
// timeouts, matching §5's connect 3s / read-write 7-10s budgets. proxy, if
// non-empty, is threaded through to the H1, H2 and H2C clients; the H3
// client has no proxy setting and always connects directly.
func NewEngineSender(connectTimeout, rwTimeout time.Duration, proxy string) Sender {
	h1 := httpengine.NewH1Client(connectTimeout, rwTimeout)
	h1.Proxy = proxy
	h2 := httpengine.NewH2Client(connectTimeout, rwTimeout)
	h2.Proxy = proxy
	h2c := httpengine.NewH2CClient(connectTimeout, rwTimeout)
	h2c.Proxy = proxy
	return &multiProtocolSender{
		h1:  h1,
		h2:  h2,
		h2c: h2c,
		h3:  httpengine.NewH3Client(rwTimeout),
	}
}

// NewRawSender builds the production RawSender, with proxy threaded through
// to the CONNECT-tunnel dial path TrailSmug's malformed payloads use.
func NewRawSender(connectTimeout, rwTimeout time.Duration, proxy string) RawSender {
	h1 := httpengine.NewH1Client(connectTimeout, rwTimeout)
	h1.Proxy = proxy
	return h1
}

func (s *multiProtocolSender) SendRequest(ctx context.Context, proto httpengine.Protocol, req *httpengine.Request) (*httpengine.Response, error) {
	switch proto {
	case httpengine.H1:
		return s.h1.SendRequest(ctx, req)
	case httpengine.H2:
		return s.h2.SendRequest(ctx, req)
	case httpengine.H2C:
		return s.h2c.SendRequest(ctx, req)
	case httpengine.H3:
		return s.h3.SendRequest(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported protocol %q", proto)
	}
}

// RawSender opens a connection and writes attacker-controlled bytes without
// interpreting any response. Only the H1 engine exposes this.
type RawSender interface {
	SendRaw(ctx context.Context, target string, data []byte) error
}
