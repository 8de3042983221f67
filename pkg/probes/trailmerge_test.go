package probes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pyneda/trailscan/pkg/httpengine"
)

type fakeDetector struct {
	candidates []httpengine.ProtocolCandidate
	err        error
}

func (f fakeDetector) DetectProtocols(ctx context.Context, target string, timeout time.Duration) ([]httpengine.ProtocolCandidate, error) {
	return f.candidates, f.err
}

type fakeSender struct {
	statuses []int
	calls    int
	err      error
}

func (f *fakeSender) SendRequest(ctx context.Context, proto httpengine.Protocol, req *httpengine.Request) (*httpengine.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	status := f.statuses[f.calls]
	f.calls++
	return &httpengine.Response{StatusCode: status}, nil
}

func TestTrailMergeGatewayTimeoutFinding(t *testing.T) {
	detector := fakeDetector{candidates: []httpengine.ProtocolCandidate{{Protocol: httpengine.H1}}}
	sender := &fakeSender{statuses: []int{200, 504}}

	probe := NewTrailMerge(detector, sender, TrailMergeOptions{})
	output, err := probe.Execute(context.Background(), "http://example")

	assert.NoError(t, err)
	assert.Equal(t, "[+] gateway timeout! HTTP/1.1 http://example", output)
	assert.Equal(t, 2, sender.calls)
}

func TestTrailMergeNoFindingOnCleanResponses(t *testing.T) {
	detector := fakeDetector{candidates: []httpengine.ProtocolCandidate{{Protocol: httpengine.H1}}}
	sender := &fakeSender{statuses: []int{200, 200}}

	probe := NewTrailMerge(detector, sender, TrailMergeOptions{})
	output, err := probe.Execute(context.Background(), "http://example")

	assert.NoError(t, err)
	assert.Empty(t, output)
}

func TestTrailMergeSkipsAttackWhenBaselineAlreadyFinding(t *testing.T) {
	detector := fakeDetector{candidates: []httpengine.ProtocolCandidate{{Protocol: httpengine.H1}}}
	sender := &fakeSender{statuses: []int{504}}

	probe := NewTrailMerge(detector, sender, TrailMergeOptions{})
	output, err := probe.Execute(context.Background(), "http://example")

	assert.NoError(t, err)
	assert.Equal(t, "[+] gateway timeout! HTTP/1.1 http://example", output)
	assert.Equal(t, 1, sender.calls)
}
