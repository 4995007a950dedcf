// Package testutil provides shared test utilities for lnprobe.
//
// # Line server
//
// The lineserver.go file provides a scripted TCP peer that behaves like a
// border node:
//
//   - NewLineServer(t, command, opts...) - listens on 127.0.0.1 with a random port
//   - WithReplies(...) - raw reply payloads, written one per request
//   - WithCloseAfterReplies() - send EOF once replies run out
//   - Requests() - every request received so far
//   - RefusedAddr(t) - a host/port pair that refuses connections
//
// # Timeouts
//
// The timeout.go file provides contexts bounded by the test deadline:
//
//   - ContextWithTestDeadline(t, fallback)
//   - ContextWithTimeout(t, timeout)
//   - ShortOperationContext(t)
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    srv := testutil.NewLineServer(t, "ln0=0", testutil.WithReplies("42\n"))
//	    ctx, cancel := testutil.ShortOperationContext(t)
//	    defer cancel()
//	    // ... dial srv.Host(), srv.Port() ...
//	}
package testutil
