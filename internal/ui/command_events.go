package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/runcheck/internal/runcmd"
)

const (
	executionStartedMessageTemplateConstant   = "Running %s\n"
	executionCompletedMessageTemplateConstant = "Completed %s\n"
	executionExitCodeMessageTemplateConstant  = "%s exited with status %d"
	executionFailureMessageTemplateConstant   = "%s failed: %s\n"
	standardErrorSuffixTemplateConstant       = ": %s"
	lineTerminatorConstant                    = "\n"
	unknownFailureMessageConstant             = "unknown error"
	emptyStringConstant                       = ""
)

// ExecutionEventFormatter builds human-readable messages for plugin
// execution lifecycle events.
type ExecutionEventFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter ExecutionEventFormatter) BuildStartedMessage(command string) string {
	return fmt.Sprintf(executionStartedMessageTemplateConstant, command)
}

// BuildCompletedMessage formats the message describing a finished command,
// appending trimmed standard error output for non-zero exits.
func (formatter ExecutionEventFormatter) BuildCompletedMessage(command string, result runcmd.ExecutionResult) string {
	if result.ExitCode == 0 {
		return fmt.Sprintf(executionCompletedMessageTemplateConstant, command)
	}

	baseMessage := fmt.Sprintf(executionExitCodeMessageTemplateConstant, command, result.ExitCode)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError.Bytes)
	return baseMessage + standardErrorSuffix + lineTerminatorConstant
}

// BuildFailureMessage formats the message describing an unexpected execution failure.
func (formatter ExecutionEventFormatter) BuildFailureMessage(command string, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(executionFailureMessageTemplateConstant, command, failureMessage)
}

func (formatter ExecutionEventFormatter) formatStandardErrorSuffix(standardError []byte) string {
	trimmedStandardError := strings.TrimSpace(string(standardError))
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

// ExecutionEventWriter renders execution lifecycle events onto a writer. It
// implements runcmd.ExecutionObserver for human-readable console sessions.
type ExecutionEventWriter struct {
	sink      io.Writer
	formatter ExecutionEventFormatter
}

// NewExecutionEventWriter constructs an event writer emitting onto the
// provided sink.
func NewExecutionEventWriter(sink io.Writer) *ExecutionEventWriter {
	if sink == nil {
		sink = io.Discard
	}
	return &ExecutionEventWriter{sink: sink, formatter: ExecutionEventFormatter{}}
}

// ExecutionStarted implements runcmd.ExecutionObserver.
func (eventWriter *ExecutionEventWriter) ExecutionStarted(command string) {
	if eventWriter == nil {
		return
	}
	_, _ = io.WriteString(eventWriter.sink, eventWriter.formatter.BuildStartedMessage(command))
}

// ExecutionCompleted implements runcmd.ExecutionObserver.
func (eventWriter *ExecutionEventWriter) ExecutionCompleted(command string, result runcmd.ExecutionResult) {
	if eventWriter == nil {
		return
	}
	_, _ = io.WriteString(eventWriter.sink, eventWriter.formatter.BuildCompletedMessage(command, result))
}

// ExecutionFailed implements runcmd.ExecutionObserver.
func (eventWriter *ExecutionEventWriter) ExecutionFailed(command string, failure error) {
	if eventWriter == nil {
		return
	}
	_, _ = io.WriteString(eventWriter.sink, eventWriter.formatter.BuildFailureMessage(command, failure))
}
