// Package task defines the narrow contract every probe implements: a single
// execute(target) operation, stateless enough to be shared read-only across
// every concurrent invocation the executor drives.
package task

import (
	"context"
	"fmt"
)

// Probe is implemented by each concrete smuggling-detection strategy.
type Probe interface {
	// Execute runs one probe invocation against target. The returned string
	// is the finding text (possibly empty, meaning no finding). Only an
	// InvalidTargetError is allowed to escape — every other failure must be
	// absorbed into the returned text.
	Execute(ctx context.Context, target string) (string, error)
}

// ProbeFunc adapts a plain function to the Probe interface.
type ProbeFunc func(ctx context.Context, target string) (string, error)

func (f ProbeFunc) Execute(ctx context.Context, target string) (string, error) {
	return f(ctx, target)
}

// InvalidTargetError is the only probe error kind that propagates up through
// the executor; it is terminal for the whole scan.
type InvalidTargetError struct {
	Target string
	Err    error
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %v", e.Target, e.Err)
}

func (e *InvalidTargetError) Unwrap() error {
	return e.Err
}
