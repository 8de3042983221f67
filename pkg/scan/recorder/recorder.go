// Package recorder is the single writer of a scan's output file and
// checkpoint: it reorders completions by absolute index, writes non-empty
// findings durably, and advances the checkpoint only after the write lands.
package recorder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pyneda/trailscan/pkg/scan/checkpoint"
)

// Message is one completed target, addressed by its absolute index (stable
// across resumes, unlike the executor's per-run submission index).
type Message struct {
	AbsoluteIndex int
	Target        string
	Output        string
}

// Config describes how a Recorder should open its output file and how its
// checkpoint should be seeded/advanced.
type Config struct {
	OutputPath     string
	CheckpointPath string
	TargetsPath    string
	Mode           string
	BaseIndex      int
	TotalTargets   int
	TruncateOutput bool
	FlushInterval  time.Duration
}

// Recorder owns the output file handle and the in-memory reorder buffer; it
// is not safe for concurrent use by more than one goroutine at a time — Run
// is meant to be the sole consumer.
type Recorder struct {
	cfg          Config
	file         *os.File
	nextExpected int
	buffer       map[int]Message
}

// New opens (truncating or appending per cfg.TruncateOutput) the output
// file and prepares a Recorder starting from cfg.BaseIndex.
func New(cfg Config) (*Recorder, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if cfg.TruncateOutput {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	file, err := os.OpenFile(cfg.OutputPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output file %q: %w", cfg.OutputPath, err)
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 120 * time.Second
	}
	return &Recorder{
		cfg:          cfg,
		file:         file,
		nextExpected: cfg.BaseIndex,
		buffer:       make(map[int]Message),
	}, nil
}

// Run drains in until it is closed, performing a final flush and, if every
// target this run was responsible for has been durably recorded, removing
// the checkpoint file. It returns the first persistence error encountered;
// any such error is terminal for the scan.
func (r *Recorder) Run(in <-chan Message, flushRequests <-chan chan<- struct{}) error {
	defer r.file.Close()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return r.finish()
			}
			if err := r.record(msg); err != nil {
				return err
			}
		case ack := <-flushRequests:
			if err := r.flush(); err != nil {
				return err
			}
			if ack != nil {
				close(ack)
			}
		case <-ticker.C:
			if err := r.flush(); err != nil {
				return err
			}
		}
	}
}

func (r *Recorder) finish() error {
	if err := r.flush(); err != nil {
		return err
	}
	if r.nextExpected >= r.cfg.BaseIndex+r.cfg.TotalTargets {
		if err := checkpoint.Remove(r.cfg.CheckpointPath); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) flush() error {
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("flushing output file %q: %w", r.cfg.OutputPath, err)
	}
	return nil
}

// record inserts msg into the reorder buffer (discarding it if it's already
// covered by the checkpoint) and drains every contiguous, ready entry.
func (r *Recorder) record(msg Message) error {
	if msg.AbsoluteIndex < r.nextExpected {
		return nil
	}
	r.buffer[msg.AbsoluteIndex] = msg

	for {
		next, ok := r.buffer[r.nextExpected]
		if !ok {
			break
		}
		delete(r.buffer, r.nextExpected)

		if strings.TrimSpace(next.Output) != "" {
			if _, err := fmt.Fprintf(r.file, "%s\t%s\n", next.Target, next.Output); err != nil {
				return fmt.Errorf("writing output record: %w", err)
			}
		}

		r.nextExpected++
		cp := checkpoint.Checkpoint{
			NextIndex:   r.nextExpected,
			TargetsPath: r.cfg.TargetsPath,
			OutputPath:  r.cfg.OutputPath,
			Mode:        r.cfg.Mode,
		}
		if err := checkpoint.Write(r.cfg.CheckpointPath, cp); err != nil {
			return err
		}
	}
	return nil
}
