package checkpoint

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := t.TempDir() + "/checkpoint"
	cp := Checkpoint{NextIndex: 42, TargetsPath: "targets.txt", OutputPath: "out.txt", Mode: "TrailMerge"}

	assert.NoError(t, Write(path, cp))

	got, ok := Read(path)
	assert.True(t, ok)
	assert.Equal(t, &cp, got)
}

func TestReadMissingFile(t *testing.T) {
	got, ok := Read(t.TempDir() + "/does-not-exist")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestReadMissingRequiredKey(t *testing.T) {
	path := t.TempDir() + "/checkpoint"
	assert.NoError(t, os.WriteFile(path, []byte("next_index=1\ntargets=t\nmode=TrailMerge\n"), 0o644))

	got, ok := Read(path)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestReadUnparseableNextIndex(t *testing.T) {
	path := t.TempDir() + "/checkpoint"
	content := "next_index=not-a-number\ntargets=t\noutput=o\nmode=TrailMerge\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, ok := Read(path)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestReadIgnoresUnrecognizedKeys(t *testing.T) {
	path := t.TempDir() + "/checkpoint"
	content := "next_index=3\ntargets=t\noutput=o\nmode=TrailSmug\nfuture_field=ignored\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, ok := Read(path)
	assert.True(t, ok)
	assert.Equal(t, &Checkpoint{NextIndex: 3, TargetsPath: "t", OutputPath: "o", Mode: "TrailSmug"}, got)
}

func TestRemoveIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/checkpoint"
	assert.NoError(t, Remove(path))

	assert.NoError(t, Write(path, Checkpoint{NextIndex: 1, TargetsPath: "t", OutputPath: "o", Mode: "TrailMerge"}))
	assert.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
