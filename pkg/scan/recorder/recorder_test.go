package recorder

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyneda/trailscan/pkg/scan/checkpoint"
)

func newTestRecorder(t *testing.T, total int) (*Recorder, string, string) {
	t.Helper()
	dir := t.TempDir()
	outputPath := dir + "/output.txt"
	checkpointPath := dir + "/checkpoint"

	rec, err := New(Config{
		OutputPath:     outputPath,
		CheckpointPath: checkpointPath,
		TargetsPath:    "targets.txt",
		Mode:           "TrailMerge",
		TotalTargets:   total,
		TruncateOutput: true,
	})
	assert.NoError(t, err)
	return rec, outputPath, checkpointPath
}

func TestRecorderWritesOnlyNonEmptyFindings(t *testing.T) {
	rec, outputPath, checkpointPath := newTestRecorder(t, 3)

	in := make(chan Message)
	done := make(chan error, 1)
	go func() { done <- rec.Run(in, nil) }()

	in <- Message{AbsoluteIndex: 0, Target: "http://a", Output: "[+] finding a"}
	in <- Message{AbsoluteIndex: 1, Target: "http://b", Output: ""}
	in <- Message{AbsoluteIndex: 2, Target: "http://c", Output: "[+] finding c"}
	close(in)

	assert.NoError(t, <-done)

	data, err := os.ReadFile(outputPath)
	assert.NoError(t, err)
	assert.Equal(t, "http://a\t[+] finding a\nhttp://c\t[+] finding c\n", string(data))

	// all 3 targets recorded, checkpoint removed on completion
	_, ok := checkpoint.Read(checkpointPath)
	assert.False(t, ok)
}

func TestRecorderReordersOutOfOrderCompletions(t *testing.T) {
	rec, outputPath, _ := newTestRecorder(t, 3)

	in := make(chan Message)
	done := make(chan error, 1)
	go func() { done <- rec.Run(in, nil) }()

	in <- Message{AbsoluteIndex: 2, Target: "http://c", Output: "[+] c"}
	in <- Message{AbsoluteIndex: 0, Target: "http://a", Output: "[+] a"}
	in <- Message{AbsoluteIndex: 1, Target: "http://b", Output: "[+] b"}
	close(in)

	assert.NoError(t, <-done)

	data, err := os.ReadFile(outputPath)
	assert.NoError(t, err)
	assert.Equal(t, "http://a\t[+] a\nhttp://b\t[+] b\nhttp://c\t[+] c\n", string(data))
}

func TestRecorderDiscardsIndexesBelowBase(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(Config{
		OutputPath:     dir + "/output.txt",
		CheckpointPath: dir + "/checkpoint",
		TargetsPath:    "targets.txt",
		Mode:           "TrailMerge",
		BaseIndex:      5,
		TotalTargets:   1,
		TruncateOutput: true,
	})
	assert.NoError(t, err)

	in := make(chan Message)
	done := make(chan error, 1)
	go func() { done <- rec.Run(in, nil) }()

	// A stale duplicate from a previous run, below the resume base.
	in <- Message{AbsoluteIndex: 3, Target: "http://stale", Output: "[+] stale"}
	in <- Message{AbsoluteIndex: 5, Target: "http://fresh", Output: "[+] fresh"}
	close(in)

	assert.NoError(t, <-done)

	data, err := os.ReadFile(dir + "/output.txt")
	assert.NoError(t, err)
	assert.Equal(t, "http://fresh\t[+] fresh\n", string(data))
}

func TestRecorderLeavesCheckpointOnPartialCompletion(t *testing.T) {
	rec, _, checkpointPath := newTestRecorder(t, 3)

	in := make(chan Message)
	done := make(chan error, 1)
	go func() { done <- rec.Run(in, nil) }()

	in <- Message{AbsoluteIndex: 0, Target: "http://a", Output: ""}
	close(in)

	assert.NoError(t, <-done)

	cp, ok := checkpoint.Read(checkpointPath)
	assert.True(t, ok)
	assert.Equal(t, 1, cp.NextIndex)
}
