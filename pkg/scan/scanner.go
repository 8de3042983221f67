// Package scan wires the executor and recorder together behind a single
// Scan entrypoint, owning progress reporting and live finding output.
package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/pyneda/trailscan/pkg/scan/executor"
	"github.com/pyneda/trailscan/pkg/scan/recorder"
	"github.com/pyneda/trailscan/pkg/scan/task"
)

// PersistenceError wraps a failure from the Recorder; it is always terminal
// for the scan, distinct from a probe-originated TaskFailedError.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting scan results: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Options configures a single Scan call.
type Options struct {
	Concurrency int
	// Recorder, if non-nil, enables durable incremental output + checkpoint.
	Recorder *recorder.Config
	// ShowProgress toggles the live progress bar (disable for tests/CI).
	ShowProgress bool
}

// Scan materializes targets, drives them through the executor with probe,
// and — if Options.Recorder is set — durably records findings and advances
// a checkpoint as they complete. It returns the submission-ordered results.
func Scan(ctx context.Context, targets []string, probe task.Probe, opts Options) ([]executor.Result, error) {
	total := len(targets)

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(total))
	}

	wrapped := task.ProbeFunc(func(ctx context.Context, target string) (string, error) {
		output, err := probe.Execute(ctx, target)
		if bar != nil {
			bar.Add(1)
		}
		if err == nil && strings.TrimSpace(output) != "" {
			fmt.Println(output)
		}
		return output, err
	})

	var rec *recorder.Recorder
	var recordCh chan recorder.Message
	var sinkCh chan executor.SinkMessage
	var wg sync.WaitGroup
	var recErr error

	if opts.Recorder != nil {
		cfg := *opts.Recorder
		cfg.TotalTargets = total

		var err error
		rec, err = recorder.New(cfg)
		if err != nil {
			return nil, &PersistenceError{Err: err}
		}

		recordCh = make(chan recorder.Message)
		sinkCh = make(chan executor.SinkMessage)

		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := rec.Run(recordCh, nil); err != nil {
				recErr = err
				// Keep consuming so the forwarder and executor are not left
				// blocked on a recorder that has stopped reading.
				for range recordCh {
				}
			}
		}()
		go func() {
			defer wg.Done()
			for msg := range sinkCh {
				recordCh <- recorder.Message{
					AbsoluteIndex: cfg.BaseIndex + msg.SubmissionIndex,
					Target:        msg.Target,
					Output:        msg.Output,
				}
			}
			close(recordCh)
		}()
	}

	execOpts := executor.Options{Concurrency: opts.Concurrency}
	if sinkCh != nil {
		execOpts.Sink = sinkCh
	}

	results, runErr := executor.Run(ctx, targets, wrapped, execOpts)

	if sinkCh != nil {
		close(sinkCh)
	}
	wg.Wait()

	if runErr != nil {
		log.Error().Err(runErr).Msg("scan aborted")
		return nil, runErr
	}
	if recErr != nil {
		log.Error().Err(recErr).Msg("scan recorder failed")
		return nil, &PersistenceError{Err: recErr}
	}
	return results, nil
}
