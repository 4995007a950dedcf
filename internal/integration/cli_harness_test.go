//go:build e2e

// cli_harness_test.go provides a test harness for E2E testing of the lnprobe
// binary.
//
// The CLIHarness builds the binary once per test and runs it as a separate
// process so exit codes, stdout and signal handling can be observed.
package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CLIHarness manages an lnprobe binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built lnprobe binary.
	BinaryPath string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the lnprobe binary into a temporary directory.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	projectRoot := findProjectRoot(t)
	require.NotEmpty(t, projectRoot, "could not find project root (directory containing go.mod)")

	binaryPath := filepath.Join(t.TempDir(), "lnprobe")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/lnprobe")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build lnprobe binary: %s", output)

	return &CLIHarness{BinaryPath: binaryPath, t: t}
}

// Run executes lnprobe with a 30 second timeout.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return h.wait(exec.CommandContext(ctx, h.BinaryPath, args...))
}

// Start launches lnprobe without waiting for it. The returned function sends
// sig to the process and collects its result.
func (h *CLIHarness) Start(args ...string) (stop func(sig os.Signal) *CLIResult) {
	h.t.Helper()

	cmd := exec.Command(h.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(h.t, cmd.Start())

	return func(sig os.Signal) *CLIResult {
		require.NoError(h.t, cmd.Process.Signal(sig))
		return collect(cmd.Wait(), &stdout, &stderr)
	}
}

func (h *CLIHarness) wait(cmd *exec.Cmd) *CLIResult {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	return collect(cmd.Run(), &stdout, &stderr)
}

func collect(err error, stdout, stderr *bytes.Buffer) *CLIResult {
	result := &CLIResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		result.Err = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	return result
}

// findProjectRoot walks up from the current directory to the go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// RequireSuccess fails the test if the command result indicates failure.
func (h *CLIHarness) RequireSuccess(result *CLIResult) {
	h.t.Helper()
	if !result.Success() {
		h.t.Fatalf("command failed: exit=%d err=%v\nstdout: %s\nstderr: %s",
			result.ExitCode, result.Err, result.Stdout, result.Stderr)
	}
}
