package probes

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pyneda/trailscan/lib"
	"github.com/pyneda/trailscan/pkg/httpengine"
	"github.com/pyneda/trailscan/pkg/scan/task"
)

// uninterestingBaselineStatuses are statuses that mean the target is already
// broken or redirecting, making differential probing noise rather than
// signal.
var uninterestingBaselineStatuses = map[int]bool{
	301: true, 302: true, 307: true, 308: true,
	400: true, 403: true, 404: true, 408: true, 429: true,
	502: true, 503: true, 504: true,
}

// ignoredDivergenceStatuses are statuses a post-attack status is allowed to
// land on without counting as a divergence (rate limiting, WAF blocks).
var ignoredDivergenceStatuses = map[int]bool{
	403: true, 409: true, 420: true, 429: true, 502: true, 503: true,
}

const interProbeDelay = 2 * time.Second

// TrailSmugOptions configures a TrailSmug probe instance.
type TrailSmugOptions struct {
	ConnectTimeout   time.Duration
	ReadWriteTimeout time.Duration
	UserAgent        string
	Verbose          bool
}

func (o TrailSmugOptions) withDefaults() TrailSmugOptions {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 3 * time.Second
	}
	if o.ReadWriteTimeout == 0 {
		o.ReadWriteTimeout = 7 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// TrailSmug differentially probes HTTP/1.1 targets: a raw, malformed request
// is fired, then a plain GET baseline is repeated; a status that diverges
// from the original baseline twice in a row against the same payload is a
// strong signal of request smuggling.
type TrailSmug struct {
	sender    Sender
	rawSender RawSender
	opts      TrailSmugOptions
}

func NewTrailSmug(sender Sender, rawSender RawSender, opts TrailSmugOptions) *TrailSmug {
	return &TrailSmug{sender: sender, rawSender: rawSender, opts: opts.withDefaults()}
}

func (s *TrailSmug) Execute(ctx context.Context, target string) (string, error) {
	components, err := lib.ParseURLComponents(target)
	if err != nil {
		return "", &task.InvalidTargetError{Target: target, Err: err}
	}

	baselineResp, err := s.sender.SendRequest(ctx, httpengine.H1, s.buildGET(target))
	if err != nil {
		if httpengine.IsInvalidTarget(err) {
			return "", &task.InvalidTargetError{Target: target, Err: err}
		}
		s.logVerbose(target, err)
		return "", nil
	}
	if uninterestingBaselineStatuses[baselineResp.StatusCode] {
		return "", nil
	}
	baselineStatus := baselineResp.StatusCode

	var findings []string
	for _, payload := range buildSmugglingPayloads(components, components.Path) {
		finding, err := s.confirmPayload(ctx, target, baselineStatus, payload)
		if err != nil {
			if invalid, ok := err.(*task.InvalidTargetError); ok {
				return strings.Join(findings, "\n"), invalid
			}
			// Any send error: return accumulated findings so far.
			return strings.Join(findings, "\n"), nil
		}
		if finding != "" {
			findings = append(findings, finding)
		}
	}
	return strings.Join(findings, "\n"), nil
}

// confirmPayload runs the double-probe confirmation for a single payload:
// two rounds of (send raw payload, re-check baseline), requiring the status
// to diverge on both consecutive rounds before emitting a finding. An empty
// finding with a nil error means the payload produced no confirmed
// divergence; a non-nil error means the send failed and the whole probe
// should stop testing further payloads.
func (s *TrailSmug) confirmPayload(ctx context.Context, target string, baselineStatus int, payload SmugglingPayload) (string, error) {
	diff := false
	for i := 0; i < 2; i++ {
		if i > 0 {
			if err := cooperativeSleep(ctx, interProbeDelay); err != nil {
				return "", nil
			}
		}

		if err := s.rawSender.SendRaw(ctx, target, payload.Raw); err != nil {
			if httpengine.IsInvalidTarget(err) {
				return "", &task.InvalidTargetError{Target: target, Err: err}
			}
			return "", err
		}

		resp, err := s.sender.SendRequest(ctx, httpengine.H1, s.buildGET(target))
		if err != nil {
			if httpengine.IsInvalidTarget(err) {
				return "", &task.InvalidTargetError{Target: target, Err: err}
			}
			return "", err
		}

		current := resp.StatusCode
		diverges := current != baselineStatus && !ignoredDivergenceStatuses[current]
		if !diverges {
			return "", nil
		}

		if i == 0 {
			diff = true
			continue
		}
		if diff {
			return fmt.Sprintf("[!] %s resp difference: baseline %d curr %d payload %s", target, baselineStatus, current, payload.Name), nil
		}
	}
	return "", nil
}

func (s *TrailSmug) buildGET(target string) *httpengine.Request {
	return httpengine.NewRequest(target, "GET").
		Header("user-agent", s.opts.UserAgent).
		FollowRedirects(false).
		Timeout(s.opts.ReadWriteTimeout)
}

func (s *TrailSmug) logVerbose(target string, err error) {
	if s.opts.Verbose {
		fmt.Fprintf(os.Stderr, "trailsmug: %s: %v\n", target, err)
	}
}

// cooperativeSleep parks the calling goroutine (never an OS thread) for d,
// returning early if ctx is cancelled.
func cooperativeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
