package lib

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	for _, n := range []int{0, 1, 20, 50} {
		s := GenerateRandomString(n)
		assert.Len(t, s, n)
	}
}

func TestGenerateRandomLowercaseString(t *testing.T) {
	s := GenerateRandomLowercaseString(30)
	assert.Len(t, s, 30)
	assert.Equal(t, strings.ToLower(s), s)
}

func TestLocalFileExists(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "exists-*")
	assert.NoError(t, err)
	assert.True(t, LocalFileExists(f.Name()))
	assert.False(t, LocalFileExists(f.Name()+"-missing"))
}

func TestReadFileByLines(t *testing.T) {
	path := t.TempDir() + "/targets.txt"
	assert.NoError(t, os.WriteFile(path, []byte("a\n  b  \n\nc\n"), 0o644))
	lines, err := ReadFileByLines(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "  b  ", "", "c"}, lines)
}
