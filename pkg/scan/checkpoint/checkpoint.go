// Package checkpoint implements the small keyed text record that lets a scan
// resume exactly where a prior run left off.
package checkpoint

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Checkpoint is the four-field progress record persisted between runs.
type Checkpoint struct {
	NextIndex   int
	TargetsPath string
	OutputPath  string
	Mode        string
}

// Read loads a checkpoint from path. A missing file or one that fails to
// parse (any required key absent or malformed) both yield (nil, false) —
// callers can't tell the difference and must treat both as "start fresh".
func Read(path string) (*Checkpoint, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	cp := &Checkpoint{}
	haveNextIndex := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "next_index":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, false
			}
			cp.NextIndex = n
			haveNextIndex = true
		case "targets":
			cp.TargetsPath = value
		case "output":
			cp.OutputPath = value
		case "mode":
			cp.Mode = value
			// Unrecognised keys are ignored.
		}
	}

	if !haveNextIndex || cp.TargetsPath == "" || cp.OutputPath == "" || cp.Mode == "" {
		return nil, false
	}
	return cp, true
}

// Write persists cp to path. Atomicity is not required: the monotonicity
// invariant means a torn write simply fails to parse on the next read,
// forcing the operator to choose between a fresh start or manual recovery.
func Write(path string, cp Checkpoint) error {
	content := fmt.Sprintf("next_index=%d\ntargets=%s\noutput=%s\nmode=%s\n",
		cp.NextIndex, cp.TargetsPath, cp.OutputPath, cp.Mode)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing checkpoint %q: %w", path, err)
	}
	return nil
}

// Remove deletes the checkpoint at path. Idempotent: a missing file is not
// an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint %q: %w", path, err)
	}
	return nil
}
