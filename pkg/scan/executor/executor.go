// Package executor streams targets through a bounded pool of concurrent
// probes while preserving input ordering of the returned results.
package executor

import (
	"context"
	"fmt"

	"github.com/pyneda/trailscan/pkg/scan/task"
)

// Result pairs a target with its probe output, in submission order.
type Result struct {
	Target string
	Output string
}

// SinkMessage is forwarded to an optional sink channel in completion order
// as each probe invocation finishes; the Recorder is responsible for
// re-ordering these by SubmissionIndex.
type SinkMessage struct {
	SubmissionIndex int
	Target          string
	Output          string
}

// TaskFailedError wraps the one probe error kind allowed to abort a scan.
type TaskFailedError struct {
	Target string
	Err    error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task failed for target %q: %v", e.Target, e.Err)
}

func (e *TaskFailedError) Unwrap() error {
	return e.Err
}

// Options configures a single Run.
type Options struct {
	// Concurrency caps the number of simultaneously in-flight probe
	// invocations. Values below 1 are treated as 1.
	Concurrency int
	// Sink, if non-nil, receives every completion in completion order
	// (not submission order) as it happens, in addition to the final
	// submission-ordered result this function returns.
	Sink chan<- SinkMessage
}

// Run drives probe.Execute over targets with at most Options.Concurrency
// invocations in flight at once. It returns results in submission order. On
// any probe error, remaining work is abandoned (in-flight invocations are
// left to finish once context is cancelled, but no new ones are started)
// and a *TaskFailedError is returned.
func Run(ctx context.Context, targets []string, probe task.Probe, opts Options) ([]Result, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type completion struct {
		index  int
		target string
		output string
		err    error
	}

	done := make(chan completion)
	submit := func(index int) {
		target := targets[index]
		go func() {
			output, err := probe.Execute(ctx, target)
			done <- completion{index: index, target: target, output: output, err: err}
		}()
	}

	nextSubmit := 0
	inFlight := 0
	for nextSubmit < len(targets) && inFlight < concurrency {
		submit(nextSubmit)
		nextSubmit++
		inFlight++
	}

	results := make([]Result, len(targets))
	var failed *TaskFailedError

	for inFlight > 0 {
		c := <-done
		inFlight--

		if c.err != nil {
			if failed == nil {
				failed = &TaskFailedError{Target: c.target, Err: c.err}
				cancel()
			}
			continue
		}

		results[c.index] = Result{Target: c.target, Output: c.output}
		if opts.Sink != nil {
			opts.Sink <- SinkMessage{SubmissionIndex: c.index, Target: c.target, Output: c.output}
		}

		if failed == nil && nextSubmit < len(targets) {
			submit(nextSubmit)
			nextSubmit++
			inFlight++
		}
	}

	if failed != nil {
		return nil, failed
	}
	return results, nil
}
