package runcmd

import (
	"errors"

	"go.uber.org/zap"
)

const (
	executionStartedMessageConstant   = "command execution started"
	executionCompletedMessageConstant = "command execution completed"
	executionFailedMessageConstant    = "command execution failed"
	logFieldCommandConstant           = "command"
	logFieldExitCodeConstant          = "exit_code"
	logFieldStdoutBytesConstant       = "stdout_bytes"
	logFieldStderrBytesConstant       = "stderr_bytes"
)

// ExecutionResult is the terminal value of one command execution: the
// captured standard output and standard error plus the normalized exit
// status.
type ExecutionResult struct {
	StandardOutput CapturedOutput
	StandardError  CapturedOutput
	ExitCode       int
}

// ExecutionObserver receives lifecycle notifications for command execution.
type ExecutionObserver interface {
	// ExecutionStarted notifies observers that a command is about to run.
	ExecutionStarted(command string)
	// ExecutionCompleted supplies the result of a finished execution.
	ExecutionCompleted(command string, result ExecutionResult)
	// ExecutionFailed reports failures that prevented a result.
	ExecutionFailed(command string, failure error)
}

// noopExecutionObserver discards all execution events.
type noopExecutionObserver struct{}

func (noopExecutionObserver) ExecutionStarted(string)                    {}
func (noopExecutionObserver) ExecutionCompleted(string, ExecutionResult) {}
func (noopExecutionObserver) ExecutionFailed(string, error)              {}

// Executor sequences tokenization, spawning, output collection, and reaping
// for single command executions against one handle registry.
//
// Each execution is driven by a single logical flow: the child is spawned,
// standard output is drained fully, then standard error, then the child is
// reaped. A child that fills its stderr pipe while stdout is still being
// drained can deadlock; that sequential drain is an accepted limitation of
// the design, bounded only by an armed timeout service.
type Executor struct {
	logger   *zap.Logger
	registry *HandleRegistry
	observer ExecutionObserver
}

// NewExecutor builds an executor around the provided logger and registry.
// A nil registry selects the process-wide default.
func NewExecutor(logger *zap.Logger, registry *HandleRegistry) (*Executor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	if registry == nil {
		registry = DefaultRegistry()
	}

	return &Executor{
		logger:   logger,
		registry: registry,
		observer: noopExecutionObserver{},
	}, nil
}

// SetObserver installs a lifecycle observer. A nil observer restores the
// discarding default.
func (executor *Executor) SetObserver(observer ExecutionObserver) {
	if observer == nil {
		executor.observer = noopExecutionObserver{}
		return
	}
	executor.observer = observer
}

// Registry exposes the handle registry driving this executor.
func (executor *Executor) Registry() *HandleRegistry {
	return executor.registry
}

// Execute runs one command end to end and assembles its ExecutionResult.
//
// A malformed command or resource exhaustion surfaces as an error with no
// result. A program that could not be started yields a result carrying
// ExitCodeExecFailure so callers can distinguish "never ran" from "ran and
// exited zero". Collection errors preserve partial output: the assembled
// result is returned together with the error after the child is reaped.
func (executor *Executor) Execute(command string, options CaptureOptions) (ExecutionResult, error) {
	executor.logger.Info(executionStartedMessageConstant, zap.String(logFieldCommandConstant, command))
	executor.observer.ExecutionStarted(command)

	argumentVector, tokenizeError := SplitCommand(command)
	if tokenizeError != nil {
		executor.logger.Error(executionFailedMessageConstant, zap.String(logFieldCommandConstant, command), zap.Error(tokenizeError))
		executor.observer.ExecutionFailed(command, tokenizeError)
		return ExecutionResult{}, tokenizeError
	}

	executionHandle, spawnError := executor.registry.Spawn(SpawnConfiguration{Arguments: argumentVector})
	if spawnError != nil {
		if errors.Is(spawnError, ErrChildExecFailure) {
			execFailureResult := ExecutionResult{ExitCode: ExitCodeExecFailure}
			executor.logger.Warn(executionCompletedMessageConstant,
				zap.String(logFieldCommandConstant, command),
				zap.Int(logFieldExitCodeConstant, execFailureResult.ExitCode),
				zap.Error(spawnError),
			)
			executor.observer.ExecutionCompleted(command, execFailureResult)
			return execFailureResult, nil
		}

		executor.logger.Error(executionFailedMessageConstant, zap.String(logFieldCommandConstant, command), zap.Error(spawnError))
		executor.observer.ExecutionFailed(command, spawnError)
		return ExecutionResult{}, spawnError
	}

	standardOutput, standardOutputError := executor.registry.Collect(executionHandle, StreamStdout, options)
	standardError, standardErrorError := executor.registry.Collect(executionHandle, StreamStderr, options)

	exitCode, closeError := executor.registry.Close(executionHandle)

	executionResult := ExecutionResult{
		StandardOutput: standardOutput,
		StandardError:  standardError,
		ExitCode:       exitCode,
	}

	if failure := firstError(standardOutputError, standardErrorError, closeError); failure != nil {
		executor.logger.Error(executionFailedMessageConstant,
			zap.String(logFieldCommandConstant, command),
			zap.Int(logFieldExitCodeConstant, exitCode),
			zap.Error(failure),
		)
		executor.observer.ExecutionFailed(command, failure)
		return executionResult, failure
	}

	executor.logger.Info(executionCompletedMessageConstant,
		zap.String(logFieldCommandConstant, command),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.Int(logFieldStdoutBytesConstant, len(executionResult.StandardOutput.Bytes)),
		zap.Int(logFieldStderrBytesConstant, len(executionResult.StandardError.Bytes)),
	)
	executor.observer.ExecutionCompleted(command, executionResult)

	return executionResult, nil
}

func firstError(candidateErrors ...error) error {
	for _, candidateError := range candidateErrors {
		if candidateError != nil {
			return candidateError
		}
	}
	return nil
}
