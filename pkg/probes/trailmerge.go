package probes

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pyneda/trailscan/pkg/httpengine"
	"github.com/pyneda/trailscan/pkg/scan/task"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// TrailMergeOptions configures a TrailMerge probe instance.
type TrailMergeOptions struct {
	ConnectTimeout   time.Duration
	ReadWriteTimeout time.Duration
	UserAgent        string
	Verbose          bool
}

func (o TrailMergeOptions) withDefaults() TrailMergeOptions {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 3 * time.Second
	}
	if o.ReadWriteTimeout == 0 {
		o.ReadWriteTimeout = 10 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// TrailMerge detects intermediaries that merge or mis-forward HTTP trailers:
// it sends a benign trailer, then one carrying a Content-Length, across
// every protocol the target speaks, and watches for a gateway timeout.
type TrailMerge struct {
	detector Detector
	sender   Sender
	opts     TrailMergeOptions
}

func NewTrailMerge(detector Detector, sender Sender, opts TrailMergeOptions) *TrailMerge {
	return &TrailMerge{detector: detector, sender: sender, opts: opts.withDefaults()}
}

func (m *TrailMerge) Execute(ctx context.Context, target string) (string, error) {
	candidates, err := m.detector.DetectProtocols(ctx, target, m.opts.ConnectTimeout)
	if err != nil {
		if httpengine.IsInvalidTarget(err) {
			return "", &task.InvalidTargetError{Target: target, Err: err}
		}
		m.logVerbose(target, err)
		return "", nil
	}

	var findings []string
	for _, candidate := range candidates {
		finding, err := m.testCandidate(ctx, target, candidate)
		if err != nil {
			// Only InvalidTarget escapes; it is terminal for the whole probe.
			return "", err
		}
		if finding != "" {
			findings = append(findings, finding)
		}
	}
	return strings.Join(findings, "\n"), nil
}

func (m *TrailMerge) testCandidate(ctx context.Context, target string, candidate httpengine.ProtocolCandidate) (string, error) {
	baseline := m.buildRequest(target, candidate.Port)
	baseline.Trailer("test", "test")

	baselineResp, err := m.sender.SendRequest(ctx, candidate.Protocol, baseline)
	if finding, invalidErr, stop := m.handleSendError(candidate.Protocol, target, err); stop {
		return finding, invalidErr
	}
	if finding := m.interpretStatus(candidate.Protocol, target, baselineResp.StatusCode); finding != "" {
		// Baseline already looks like a finding; skip the attack probe.
		return finding, nil
	}

	attack := m.buildRequest(target, candidate.Port)
	attack.Trailer("content-length", "10000")

	attackResp, err := m.sender.SendRequest(ctx, candidate.Protocol, attack)
	if finding, invalidErr, stop := m.handleSendError(candidate.Protocol, target, err); stop {
		return finding, invalidErr
	}
	return m.interpretStatus(candidate.Protocol, target, attackResp.StatusCode), nil
}

func (m *TrailMerge) buildRequest(target string, port *int) *httpengine.Request {
	req := httpengine.NewRequest(target, "POST").
		Header("user-agent", m.opts.UserAgent).
		Header("bug-bounty", "scan").
		Header("te", "trailers").
		Body([]byte("test")).
		FollowRedirects(true).
		Timeout(m.opts.ReadWriteTimeout)
	if port != nil {
		req.SetPort(*port)
	}
	return req
}

// interpretStatus implements the §4.2 status table: a 504 indicates an
// intermediate gave up waiting on the origin, which is the signature of a
// merged-trailer desync. 502/503 are intentionally ignored: historical
// versions flagged them too and drowned findings in false positives.
func (m *TrailMerge) interpretStatus(proto httpengine.Protocol, target string, status int) string {
	if status == 504 {
		return fmt.Sprintf("[+] gateway timeout! %s %s", proto, target)
	}
	return ""
}

// handleSendError absorbs every error except InvalidTarget. stop indicates
// testCandidate should return immediately with (finding, invalidErr).
func (m *TrailMerge) handleSendError(proto httpengine.Protocol, target string, err error) (finding string, invalidErr error, stop bool) {
	if err == nil {
		return "", nil, false
	}
	if httpengine.IsInvalidTarget(err) {
		return "", &task.InvalidTargetError{Target: target, Err: err}, true
	}
	if httpengine.IsTimeout(err) {
		return fmt.Sprintf("[!] timeout %s %s", proto, target), nil, true
	}
	m.logVerbose(target, err)
	return "", nil, true
}

func (m *TrailMerge) logVerbose(target string, err error) {
	if m.opts.Verbose {
		fmt.Fprintf(os.Stderr, "trailmerge: %s: %v\n", target, err)
	}
}
