package runcmd

import "fmt"

const (
	reapFailureWrapTemplateConstant = "%w: %v"
)

// Exit-code sentinels reported alongside the normalized 0-255 range.
const (
	// ExitCodeAbnormalTermination marks a child that terminated on a signal
	// or whose reap failed. It is never silently mapped to zero.
	ExitCodeAbnormalTermination = -1
	// ExitCodeExecFailure marks a requested program that never started. It is
	// deliberately distinct from a successful run that produced no output.
	ExitCodeExecFailure = 127
)

// Close unregisters the handle, closes its pipe descriptors, and blocks
// until the child terminates, returning the normalized exit status.
//
// The registry slot is cleared before waiting so a timeout firing
// concurrently cannot re-signal a child already being reaped. Interrupted
// waits are retried by the runtime; any other wait failure surfaces as
// ErrReapFailure. A normal exit yields the child's exit code; abnormal
// termination yields ExitCodeAbnormalTermination.
func (registry *HandleRegistry) Close(executionHandle Handle) (int, error) {
	reapedProcessIdentifier := registry.unregister(executionHandle)
	if reapedProcessIdentifier == 0 {
		return ExitCodeAbnormalTermination, fmt.Errorf("%w", ErrInvalidHandle)
	}

	entry := registry.takeEntry(executionHandle)
	closeFiles(entry.standardOutputPipe, entry.standardErrorPipe)

	processState, waitError := entry.process.Wait()
	if waitError != nil {
		return ExitCodeAbnormalTermination, fmt.Errorf(reapFailureWrapTemplateConstant, ErrReapFailure, waitError)
	}

	if !processState.Exited() {
		return ExitCodeAbnormalTermination, nil
	}

	return processState.ExitCode(), nil
}
