package probes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyneda/trailscan/pkg/httpengine"
)

// sequencedSender replays a fixed list of status codes to every successive
// SendRequest call, regardless of method/protocol, mirroring the baseline
// and re-check GETs TrailSmug interleaves with each raw payload send.
type sequencedSender struct {
	statuses []int
	calls    int
}

func (s *sequencedSender) SendRequest(ctx context.Context, proto httpengine.Protocol, req *httpengine.Request) (*httpengine.Response, error) {
	status := s.statuses[s.calls]
	s.calls++
	return &httpengine.Response{StatusCode: status}, nil
}

type noopRawSender struct {
	calls int
}

func (n *noopRawSender) SendRaw(ctx context.Context, target string, data []byte) error {
	n.calls++
	return nil
}

func TestTrailSmugConfirmsOnDoubleDivergence(t *testing.T) {
	// confirmPayload's own two rounds: [send raw, re-check GET] x2.
	sender := &sequencedSender{statuses: []int{500, 500}}
	raw := &noopRawSender{}

	probe := NewTrailSmug(sender, raw, TrailSmugOptions{})
	finding, err := probe.confirmPayload(context.Background(), "http://example", 200, SmugglingPayload{Name: "payload-1", Raw: []byte("x")})

	assert.NoError(t, err)
	assert.Equal(t, "[!] http://example resp difference: baseline 200 curr 500 payload payload-1", finding)
}

func TestTrailSmugNoFindingWhenSecondIterationRecovers(t *testing.T) {
	sender := &sequencedSender{statuses: []int{500, 200}}
	raw := &noopRawSender{}

	probe := NewTrailSmug(sender, raw, TrailSmugOptions{})
	finding, err := probe.confirmPayload(context.Background(), "http://example", 200, SmugglingPayload{Name: "payload-1", Raw: []byte("x")})

	assert.NoError(t, err)
	assert.Empty(t, finding)
}

func TestTrailSmugSkipsUninterestingBaseline(t *testing.T) {
	sender := &sequencedSender{statuses: []int{404}}
	raw := &noopRawSender{}

	probe := NewTrailSmug(sender, raw, TrailSmugOptions{})
	output, err := probe.Execute(context.Background(), "http://example")

	assert.NoError(t, err)
	assert.Empty(t, output)
	assert.Equal(t, 0, raw.calls)
}
