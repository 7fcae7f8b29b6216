package check

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/runcheck/internal/plugin"
	"github.com/temirov/runcheck/internal/runcmd"
	"github.com/temirov/runcheck/internal/thresholds"
)

const (
	serviceLoggerMissingMessageConstant   = "check service requires a logger"
	serviceExecutorMissingMessageConstant = "check service requires an executor"
	missingCommandMessageConstant         = "no plugin command configured"
	noOutputFallbackTemplateConstant      = "%s - plugin produced no output\n"
	unparsableValueTemplateConstant       = "%s - plugin output %q is not a numeric value\n"
	evaluatedValueTemplateConstant        = "%s - measured value %s against %s\n"
	programNotStartedTemplateConstant     = "%s - plugin could not be started\n"
	abnormalTerminationTemplateConstant   = "%s - plugin terminated abnormally\n"
	labeledMessageTemplateConstant        = "%s: %s"
	checkStartedMessageConstant           = "check started"
	checkFinishedMessageConstant          = "check finished"
	logFieldRunIdentifierConstant         = "run_id"
	logFieldCheckCommandConstant          = "command"
	logFieldCheckStateConstant            = "state"
	logFieldThresholdsConstant            = "thresholds"
	logFieldExitCodeConstant              = "exit_code"
	valueBitSizeConstant                  = 64
	renderedValueFormatByteConstant       = 'g'
	renderedValuePrecisionConstant        = -1
	maximumProtocolExitStatusConstant     = int(plugin.StateUnknown)
)

var (
	errServiceLoggerMissing   = errors.New(serviceLoggerMissingMessageConstant)
	errServiceExecutorMissing = errors.New(serviceExecutorMissingMessageConstant)
	errMissingCommand         = errors.New(missingCommandMessageConstant)
)

// CheckOptions describes one plugin execution request. Label, when set, is
// unescaped and prefixed onto the outcome message.
type CheckOptions struct {
	CommandLine    string
	Label          string
	Thresholds     thresholds.Thresholds
	TimeoutSeconds int
	RawOutput      bool
}

// CheckOutcome is the terminal value of one check: the plugin state to exit
// with, the rendered message, and the raw execution result.
type CheckOutcome struct {
	State           plugin.State
	Message         string
	ExecutionResult runcmd.ExecutionResult
	RunIdentifier   string
}

// Service executes plugin commands and normalizes their results into plugin
// states.
type Service struct {
	logger         *zap.Logger
	executor       *runcmd.Executor
	timeoutService *runcmd.TimeoutService
}

// NewService builds a check service around the provided logger and executor.
func NewService(logger *zap.Logger, executor *runcmd.Executor) (*Service, error) {
	if logger == nil {
		return nil, errServiceLoggerMissing
	}
	if executor == nil {
		return nil, errServiceExecutorMissing
	}

	return &Service{
		logger:         logger,
		executor:       executor,
		timeoutService: runcmd.NewTimeoutService(executor.Registry()),
	}, nil
}

// SetTimeoutService replaces the timeout service, primarily for tests that
// must not terminate the test process.
func (service *Service) SetTimeoutService(timeoutService *runcmd.TimeoutService) {
	service.timeoutService = timeoutService
}

// RunCheck executes one plugin command and maps the captured output and exit
// status onto a plugin state.
//
// With a warning or critical range configured, the first whitespace-separated
// token of the plugin's first output line is parsed as the measured value
// and evaluated against the ranges. Without ranges, the child's exit status
// is adopted directly when it lies inside the plugin protocol range and
// treated as unknown otherwise.
func (service *Service) RunCheck(options CheckOptions) (CheckOutcome, error) {
	runIdentifier := uuid.NewString()

	trimmedCommandLine := strings.TrimSpace(options.CommandLine)
	if len(trimmedCommandLine) == 0 {
		return CheckOutcome{State: plugin.StateUnknown, RunIdentifier: runIdentifier}, errMissingCommand
	}

	service.logger.Info(checkStartedMessageConstant,
		zap.String(logFieldRunIdentifierConstant, runIdentifier),
		zap.String(logFieldCheckCommandConstant, trimmedCommandLine),
		zap.String(logFieldThresholdsConstant, options.Thresholds.Describe()),
	)

	if options.TimeoutSeconds > 0 && service.timeoutService != nil {
		service.timeoutService.Arm(time.Duration(options.TimeoutSeconds) * time.Second)
		defer service.timeoutService.Disarm()
	}

	executionResult, executionError := service.executor.Execute(trimmedCommandLine, runcmd.CaptureOptions{RawOnly: options.RawOutput})
	if executionError != nil {
		return CheckOutcome{
			State:           plugin.StateUnknown,
			ExecutionResult: executionResult,
			RunIdentifier:   runIdentifier,
		}, executionError
	}

	checkOutcome := service.resolveOutcome(options.Thresholds, executionResult)
	checkOutcome.RunIdentifier = runIdentifier
	checkOutcome.Message = applyLabel(options.Label, checkOutcome.Message)

	service.logger.Info(checkFinishedMessageConstant,
		zap.String(logFieldRunIdentifierConstant, runIdentifier),
		zap.String(logFieldCheckStateConstant, checkOutcome.State.Label()),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return checkOutcome, nil
}

func (service *Service) resolveOutcome(configuredThresholds thresholds.Thresholds, executionResult runcmd.ExecutionResult) CheckOutcome {
	if configuredThresholds.Configured() {
		return evaluateMeasuredValue(configuredThresholds, executionResult)
	}

	return adoptExitStatus(executionResult)
}

// applyLabel prefixes the outcome message with the unescaped label so
// configured labels may carry backslash escapes for tabs and newlines.
func applyLabel(label string, message string) string {
	trimmedLabel := strings.TrimSpace(label)
	if len(trimmedLabel) == 0 {
		return message
	}
	return fmt.Sprintf(labeledMessageTemplateConstant, plugin.UnescapeString(trimmedLabel), message)
}

// evaluateMeasuredValue parses the leading token of the plugin's output and
// grades it against the configured ranges.
func evaluateMeasuredValue(configuredThresholds thresholds.Thresholds, executionResult runcmd.ExecutionResult) CheckOutcome {
	measuredToken, tokenAvailable := firstOutputToken(executionResult)
	if !tokenAvailable {
		return CheckOutcome{
			State:           plugin.StateUnknown,
			Message:         fmt.Sprintf(noOutputFallbackTemplateConstant, plugin.StateUnknown.Label()),
			ExecutionResult: executionResult,
		}
	}

	measuredValue, parseError := strconv.ParseFloat(measuredToken, valueBitSizeConstant)
	if parseError != nil {
		return CheckOutcome{
			State:           plugin.StateUnknown,
			Message:         fmt.Sprintf(unparsableValueTemplateConstant, plugin.StateUnknown.Label(), measuredToken),
			ExecutionResult: executionResult,
		}
	}

	evaluatedState := configuredThresholds.Evaluate(measuredValue)
	renderedValue := strconv.FormatFloat(measuredValue, renderedValueFormatByteConstant, renderedValuePrecisionConstant, valueBitSizeConstant)

	return CheckOutcome{
		State:           evaluatedState,
		Message:         fmt.Sprintf(evaluatedValueTemplateConstant, evaluatedState.Label(), renderedValue, configuredThresholds.Describe()),
		ExecutionResult: executionResult,
	}
}

// adoptExitStatus maps the child's exit status onto a plugin state,
// relaying the plugin's own output as the message.
func adoptExitStatus(executionResult runcmd.ExecutionResult) CheckOutcome {
	var adoptedState plugin.State
	var renderedMessage string

	switch {
	case executionResult.ExitCode == runcmd.ExitCodeExecFailure:
		adoptedState = plugin.StateUnknown
		renderedMessage = fmt.Sprintf(programNotStartedTemplateConstant, adoptedState.Label())
	case executionResult.ExitCode == runcmd.ExitCodeAbnormalTermination:
		adoptedState = plugin.StateUnknown
		renderedMessage = fmt.Sprintf(abnormalTerminationTemplateConstant, adoptedState.Label())
	case executionResult.ExitCode >= 0 && executionResult.ExitCode <= maximumProtocolExitStatusConstant:
		adoptedState = plugin.State(executionResult.ExitCode)
		renderedMessage = relayedOutput(executionResult, adoptedState)
	default:
		adoptedState = plugin.StateUnknown
		renderedMessage = relayedOutput(executionResult, adoptedState)
	}

	return CheckOutcome{
		State:           adoptedState,
		Message:         renderedMessage,
		ExecutionResult: executionResult,
	}
}

func relayedOutput(executionResult runcmd.ExecutionResult, fallbackState plugin.State) string {
	if len(executionResult.StandardOutput.Bytes) > 0 {
		return string(executionResult.StandardOutput.Bytes)
	}
	if len(executionResult.StandardError.Bytes) > 0 {
		return string(executionResult.StandardError.Bytes)
	}
	return fmt.Sprintf(noOutputFallbackTemplateConstant, fallbackState.Label())
}

func firstOutputToken(executionResult runcmd.ExecutionResult) (string, bool) {
	outputFields := strings.Fields(string(executionResult.StandardOutput.Bytes))
	if len(outputFields) == 0 {
		return "", false
	}
	return outputFields[0], true
}
