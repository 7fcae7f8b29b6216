package runcmd

import "errors"

const (
	malformedCommandMessageConstant    = "command string is malformed"
	resourceExhaustionMessageConstant  = "process resources exhausted"
	childExecFailureMessageConstant    = "child program could not be started"
	invalidHandleMessageConstant       = "handle is not registered"
	reapFailureMessageConstant         = "waiting for child termination failed"
	loggerNotConfiguredMessageConstant = "logger not configured"
)

// Exported failure sentinels describing every fallible operation of the package.
var (
	// ErrMalformedCommand reports a command string rejected by the tokenizer.
	ErrMalformedCommand = errors.New(malformedCommandMessageConstant)
	// ErrResourceExhaustion reports pipe or process allocation failure.
	ErrResourceExhaustion = errors.New(resourceExhaustionMessageConstant)
	// ErrChildExecFailure reports that the requested program never started.
	ErrChildExecFailure = errors.New(childExecFailureMessageConstant)
	// ErrInvalidHandle reports an operation against an unregistered handle.
	ErrInvalidHandle = errors.New(invalidHandleMessageConstant)
	// ErrReapFailure reports a wait failure other than interruption.
	ErrReapFailure = errors.New(reapFailureMessageConstant)
	// ErrLoggerNotConfigured reports executor construction without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
)
