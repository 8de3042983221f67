package httpengine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTimeoutAndIsInvalidTarget(t *testing.T) {
	timeoutErr := newError(ErrKindTimeout, "http://example", errors.New("deadline exceeded"))
	invalidErr := newError(ErrKindInvalidTarget, "not-a-url", errors.New("no host"))
	transportErr := newError(ErrKindTransport, "http://example", errors.New("connection reset"))

	assert.True(t, IsTimeout(timeoutErr))
	assert.False(t, IsInvalidTarget(timeoutErr))

	assert.True(t, IsInvalidTarget(invalidErr))
	assert.False(t, IsTimeout(invalidErr))

	assert.False(t, IsTimeout(transportErr))
	assert.False(t, IsInvalidTarget(transportErr))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrKindTransport, "http://example", cause)
	assert.ErrorIs(t, err, cause)
}
