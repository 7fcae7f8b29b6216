package check_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/runcheck/internal/check"
	"github.com/temirov/runcheck/internal/plugin"
	"github.com/temirov/runcheck/internal/runcmd"
	"github.com/temirov/runcheck/internal/thresholds"
)

const (
	testEchoThreeCommandConstant        = "/bin/echo 3"
	testEchoSevenCommandConstant        = "/bin/echo 7"
	testEchoTwelveCommandConstant       = "/bin/echo 12"
	testEchoWordCommandConstant         = "/bin/echo hello"
	testTrueCommandConstant             = "/bin/true"
	testWarningOutputCommandConstant    = "/bin/sh -c 'echo WARNING - high load; exit 1'"
	testProtocolOverflowCommandConstant = "/bin/sh -c 'exit 7'"
	testMissingProgramCommandConstant   = "/nonexistent/program"
	testSleepCommandConstant            = "/bin/sleep 30"
	testWarningRangeConstant            = "5"
	testCriticalRangeConstant           = "10"
	testEscapedLabelConstant            = `disk\tusage`
)

func mustParseThresholds(testInstance *testing.T, warningSpecification string, criticalSpecification string) thresholds.Thresholds {
	testInstance.Helper()

	parsedThresholds, parseError := thresholds.ParseThresholds(warningSpecification, criticalSpecification)
	require.NoError(testInstance, parseError)

	return parsedThresholds
}

// timeoutRecorder captures timeout service effects under a mutex because the
// expiry timer fires on its own goroutine.
type timeoutRecorder struct {
	mutex              sync.Mutex
	announcementBuffer bytes.Buffer
	recordedStatuses   []int
}

func (recorder *timeoutRecorder) Write(payload []byte) (int, error) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return recorder.announcementBuffer.Write(payload)
}

func (recorder *timeoutRecorder) recordStatus(exitStatus int) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.recordedStatuses = append(recorder.recordedStatuses, exitStatus)
}

func (recorder *timeoutRecorder) announcement() string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return recorder.announcementBuffer.String()
}

func (recorder *timeoutRecorder) statuses() []int {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]int{}, recorder.recordedStatuses...)
}

func newTestService(testInstance *testing.T) *check.Service {
	testInstance.Helper()

	executor, executorError := runcmd.NewExecutor(zaptest.NewLogger(testInstance), nil)
	require.NoError(testInstance, executorError)

	service, serviceError := check.NewService(zaptest.NewLogger(testInstance), executor)
	require.NoError(testInstance, serviceError)

	return service
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	executor, executorError := runcmd.NewExecutor(zap.NewNop(), nil)
	require.NoError(testInstance, executorError)

	testCases := []struct {
		name     string
		logger   *zap.Logger
		executor *runcmd.Executor
	}{
		{name: "missing_logger", logger: nil, executor: executor},
		{name: "missing_executor", logger: zap.NewNop(), executor: nil},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			service, serviceError := check.NewService(testCase.logger, testCase.executor)
			require.Error(subtest, serviceError)
			require.Nil(subtest, service)
		})
	}
}

func TestRunCheckGradesMeasuredValues(testInstance *testing.T) {
	testCases := []struct {
		name            string
		commandLine     string
		expectedState   plugin.State
		expectedMessage string
	}{
		{
			name:            "value_within_ranges",
			commandLine:     testEchoThreeCommandConstant,
			expectedState:   plugin.StateOK,
			expectedMessage: "OK - measured value 3 against warning=0:5 critical=0:10\n",
		},
		{
			name:            "value_violates_warning",
			commandLine:     testEchoSevenCommandConstant,
			expectedState:   plugin.StateWarning,
			expectedMessage: "WARNING - measured value 7 against warning=0:5 critical=0:10\n",
		},
		{
			name:            "value_violates_critical",
			commandLine:     testEchoTwelveCommandConstant,
			expectedState:   plugin.StateCritical,
			expectedMessage: "CRITICAL - measured value 12 against warning=0:5 critical=0:10\n",
		},
		{
			name:            "non_numeric_output",
			commandLine:     testEchoWordCommandConstant,
			expectedState:   plugin.StateUnknown,
			expectedMessage: "UNKNOWN - plugin output \"hello\" is not a numeric value\n",
		},
		{
			name:            "no_output",
			commandLine:     testTrueCommandConstant,
			expectedState:   plugin.StateUnknown,
			expectedMessage: "UNKNOWN - plugin produced no output\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			service := newTestService(subtest)

			checkOutcome, checkError := service.RunCheck(check.CheckOptions{
				CommandLine: testCase.commandLine,
				Thresholds:  mustParseThresholds(subtest, testWarningRangeConstant, testCriticalRangeConstant),
			})

			require.NoError(subtest, checkError)
			require.Equal(subtest, testCase.expectedState, checkOutcome.State)
			require.Equal(subtest, testCase.expectedMessage, checkOutcome.Message)
		})
	}
}

func TestRunCheckAdoptsExitStatuses(testInstance *testing.T) {
	testCases := []struct {
		name            string
		commandLine     string
		expectedState   plugin.State
		expectedMessage string
	}{
		{
			name:            "warning_exit_relays_output",
			commandLine:     testWarningOutputCommandConstant,
			expectedState:   plugin.StateWarning,
			expectedMessage: "WARNING - high load\n",
		},
		{
			name:            "exit_outside_protocol_is_unknown",
			commandLine:     testProtocolOverflowCommandConstant,
			expectedState:   plugin.StateUnknown,
			expectedMessage: "UNKNOWN - plugin produced no output\n",
		},
		{
			name:            "missing_program_is_unknown",
			commandLine:     testMissingProgramCommandConstant,
			expectedState:   plugin.StateUnknown,
			expectedMessage: "UNKNOWN - plugin could not be started\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			service := newTestService(subtest)

			checkOutcome, checkError := service.RunCheck(check.CheckOptions{CommandLine: testCase.commandLine})

			require.NoError(subtest, checkError)
			require.Equal(subtest, testCase.expectedState, checkOutcome.State)
			require.Equal(subtest, testCase.expectedMessage, checkOutcome.Message)
		})
	}
}

func TestRunCheckRejectsMissingCommand(testInstance *testing.T) {
	service := newTestService(testInstance)

	checkOutcome, checkError := service.RunCheck(check.CheckOptions{CommandLine: "   "})

	require.Error(testInstance, checkError)
	require.Equal(testInstance, plugin.StateUnknown, checkOutcome.State)
}

func TestRunCheckPrefixesUnescapedLabel(testInstance *testing.T) {
	service := newTestService(testInstance)

	checkOutcome, checkError := service.RunCheck(check.CheckOptions{
		CommandLine: testEchoThreeCommandConstant,
		Label:       testEscapedLabelConstant,
		Thresholds:  mustParseThresholds(testInstance, testWarningRangeConstant, testCriticalRangeConstant),
	})

	require.NoError(testInstance, checkError)
	require.Equal(testInstance, plugin.StateOK, checkOutcome.State)
	require.Equal(testInstance, "disk\tusage: OK - measured value 3 against warning=0:5 critical=0:10\n", checkOutcome.Message)
}

func TestRunCheckAssignsDistinctRunIdentifiers(testInstance *testing.T) {
	service := newTestService(testInstance)

	firstOutcome, firstError := service.RunCheck(check.CheckOptions{CommandLine: testTrueCommandConstant})
	require.NoError(testInstance, firstError)
	secondOutcome, secondError := service.RunCheck(check.CheckOptions{CommandLine: testTrueCommandConstant})
	require.NoError(testInstance, secondError)

	_, firstParseError := uuid.Parse(firstOutcome.RunIdentifier)
	require.NoError(testInstance, firstParseError)
	_, secondParseError := uuid.Parse(secondOutcome.RunIdentifier)
	require.NoError(testInstance, secondParseError)
	require.NotEqual(testInstance, firstOutcome.RunIdentifier, secondOutcome.RunIdentifier)
}

func TestRunCheckTimeoutKillsLongRunningPlugin(testInstance *testing.T) {
	executor, executorError := runcmd.NewExecutor(zaptest.NewLogger(testInstance), nil)
	require.NoError(testInstance, executorError)

	service, serviceError := check.NewService(zaptest.NewLogger(testInstance), executor)
	require.NoError(testInstance, serviceError)

	recorder := &timeoutRecorder{}
	service.SetTimeoutService(runcmd.NewTimeoutServiceWithHooks(executor.Registry(), recorder, nil, recorder.recordStatus))

	startInstant := time.Now()
	checkOutcome, checkError := service.RunCheck(check.CheckOptions{
		CommandLine:    testSleepCommandConstant,
		TimeoutSeconds: 1,
	})

	require.NoError(testInstance, checkError)
	require.Less(testInstance, time.Since(startInstant), 10*time.Second)
	require.Equal(testInstance, plugin.StateUnknown, checkOutcome.State)
	require.Equal(testInstance, runcmd.ExitCodeAbnormalTermination, checkOutcome.ExecutionResult.ExitCode)
	require.Contains(testInstance, recorder.announcement(), "timed out")
	require.Equal(testInstance, []int{2}, recorder.statuses())
}
