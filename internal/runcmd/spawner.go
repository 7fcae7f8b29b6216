package runcmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

const (
	minimalLocaleEnvironmentEntryConstant = "LC_ALL=C"
	pipeCreationFailureTemplateConstant   = "%w: pipe creation failed: %v"
	processStartFailureTemplateConstant   = "%w: %v"
	registryFullFailureTemplateConstant   = "%w: registry cannot track descriptor %d"
)

// SpawnConfiguration makes the trust boundary of a spawn explicit: the
// argument vector, the exact environment the child receives (nothing is
// inherited from the caller), and the descriptor-inherit policy, which denies
// everything except the standard descriptors wired to the capture pipes.
type SpawnConfiguration struct {
	Arguments   []string
	Environment []string
}

// MinimalEnvironment returns the fixed environment passed to children when
// the configuration supplies none: a single locale variable.
func MinimalEnvironment() []string {
	return []string{minimalLocaleEnvironmentEntryConstant}
}

// Spawn creates the stdout and stderr pipes, starts the requested program,
// and registers the child. The returned handle is the read end of the
// child's standard output pipe. The executable path is taken verbatim from
// the first argument; no PATH search is performed.
//
// Pipe or process-table exhaustion surfaces as ErrResourceExhaustion with no
// registry mutation. A program that cannot be started (missing, not
// executable) surfaces as ErrChildExecFailure.
func (registry *HandleRegistry) Spawn(configuration SpawnConfiguration) (Handle, error) {
	if len(configuration.Arguments) == 0 {
		return 0, fmt.Errorf(emptyCommandRejectionTemplateConstant, ErrMalformedCommand)
	}

	standardOutputRead, standardOutputWrite, standardOutputPipeError := os.Pipe()
	if standardOutputPipeError != nil {
		return 0, fmt.Errorf(pipeCreationFailureTemplateConstant, ErrResourceExhaustion, standardOutputPipeError)
	}

	standardErrorRead, standardErrorWrite, standardErrorPipeError := os.Pipe()
	if standardErrorPipeError != nil {
		closeFiles(standardOutputRead, standardOutputWrite)
		return 0, fmt.Errorf(pipeCreationFailureTemplateConstant, ErrResourceExhaustion, standardErrorPipeError)
	}

	childEnvironment := configuration.Environment
	if childEnvironment == nil {
		childEnvironment = MinimalEnvironment()
	}

	// The Files allow-list is the descriptor-inherit policy: stdin plus the
	// two pipe write ends. Pipe descriptors carry close-on-exec, so nothing
	// tracked by the registry leaks into the child.
	childProcess, startError := os.StartProcess(configuration.Arguments[0], configuration.Arguments, &os.ProcAttr{
		Env:   childEnvironment,
		Files: []*os.File{os.Stdin, standardOutputWrite, standardErrorWrite},
	})

	closeFiles(standardOutputWrite, standardErrorWrite)

	if startError != nil {
		closeFiles(standardOutputRead, standardErrorRead)
		return 0, classifyStartFailure(startError)
	}

	executionHandle := Handle(standardOutputRead.Fd())
	registered := registry.register(executionHandle, childProcess.Pid, handleEntry{
		process:            childProcess,
		standardOutputPipe: standardOutputRead,
		standardErrorPipe:  standardErrorRead,
	})
	if !registered {
		_ = childProcess.Kill()
		_, _ = childProcess.Wait()
		closeFiles(standardOutputRead, standardErrorRead)
		return 0, fmt.Errorf(registryFullFailureTemplateConstant, ErrResourceExhaustion, executionHandle)
	}

	return executionHandle, nil
}

// classifyStartFailure separates allocation failures from programs that
// could not be started.
func classifyStartFailure(startError error) error {
	resourceFailureCodes := []syscall.Errno{syscall.EAGAIN, syscall.EMFILE, syscall.ENFILE, syscall.ENOMEM}
	for _, failureCode := range resourceFailureCodes {
		if errors.Is(startError, failureCode) {
			return fmt.Errorf(processStartFailureTemplateConstant, ErrResourceExhaustion, startError)
		}
	}

	return fmt.Errorf(processStartFailureTemplateConstant, ErrChildExecFailure, startError)
}

func closeFiles(files ...*os.File) {
	for _, file := range files {
		if file != nil {
			_ = file.Close()
		}
	}
}
