package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultShortTimeout bounds quick operations such as a handful of
	// poll cycles against a local line server.
	DefaultShortTimeout = 10 * time.Second

	// DefaultTestBuffer is the buffer time subtracted from test deadline
	// to allow for cleanup operations before the test times out.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline creates a context that respects the test's deadline.
// It subtracts a buffer from the test deadline to allow time for cleanup.
// If the test has no deadline, it falls back to the provided fallback duration.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, fallback, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer creates a context that respects the test's deadline
// with a custom buffer.
//
// If the test has no deadline, it uses the fallback duration.
// If the calculated deadline (test deadline minus buffer) is in the past,
// or later than the fallback, the fallback is used instead.
func ContextWithTestDeadlineBuffer(t *testing.T, fallback, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-buffer)
		remaining := time.Until(adjusted)
		if remaining > 0 && remaining < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}

	return context.WithTimeout(context.Background(), fallback)
}

// ContextWithTimeout creates a context with the specified timeout.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	t.Logf("Context timeout: %v", timeout)
	return context.WithTimeout(context.Background(), timeout)
}

// ShortOperationContext creates a context for quick local operations.
func ShortOperationContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultShortTimeout)
}
