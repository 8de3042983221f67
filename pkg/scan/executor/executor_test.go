package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyneda/trailscan/pkg/scan/task"
)

func TestRunPreservesSubmissionOrder(t *testing.T) {
	targets := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	probe := task.ProbeFunc(func(ctx context.Context, target string) (string, error) {
		return "output-" + target, nil
	})

	results, err := Run(context.Background(), targets, probe, Options{Concurrency: 3})
	assert.NoError(t, err)
	assert.Len(t, results, len(targets))
	for i, target := range targets {
		assert.Equal(t, target, results[i].Target)
		assert.Equal(t, "output-"+target, results[i].Output)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const concurrency = 4
	targets := make([]string, 50)
	for i := range targets {
		targets[i] = fmt.Sprintf("target-%d", i)
	}

	var current int32
	var maxObserved int32
	var mu sync.Mutex
	release := make(chan struct{})

	probe := task.ProbeFunc(func(ctx context.Context, target string) (string, error) {
		n := atomic.AddInt32(&current, 1)
		mu.Lock()
		if n > maxObserved {
			maxObserved = n
		}
		mu.Unlock()
		<-release
		atomic.AddInt32(&current, -1)
		return "", nil
	})

	done := make(chan struct{})
	go func() {
		_, err := Run(context.Background(), targets, probe, Options{Concurrency: concurrency})
		assert.NoError(t, err)
		close(done)
	}()

	for i := 0; i < len(targets); i++ {
		release <- struct{}{}
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, int(maxObserved), concurrency)
}

func TestRunAbortsOnFirstError(t *testing.T) {
	targets := []string{"a", "b", "c"}
	boom := errors.New("boom")
	probe := task.ProbeFunc(func(ctx context.Context, target string) (string, error) {
		if target == "b" {
			return "", boom
		}
		return "ok", nil
	})

	results, err := Run(context.Background(), targets, probe, Options{Concurrency: 1})
	assert.Nil(t, results)
	assert.Error(t, err)

	var failed *TaskFailedError
	assert.True(t, errors.As(err, &failed))
	assert.Equal(t, "b", failed.Target)
	assert.ErrorIs(t, err, boom)
}

func TestRunForwardsSinkInCompletionOrder(t *testing.T) {
	targets := []string{"a", "b", "c"}
	probe := task.ProbeFunc(func(ctx context.Context, target string) (string, error) {
		return target, nil
	})

	sink := make(chan SinkMessage, len(targets))
	_, err := Run(context.Background(), targets, probe, Options{Concurrency: 1, Sink: sink})
	assert.NoError(t, err)
	close(sink)

	var seen []int
	for msg := range sink {
		seen = append(seen, msg.SubmissionIndex)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}
