package check

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/runcheck/internal/plugin"
	"github.com/temirov/runcheck/internal/runcmd"
	"github.com/temirov/runcheck/internal/thresholds"
	"github.com/temirov/runcheck/internal/ui"
	"github.com/temirov/runcheck/internal/utils"
)

const (
	batchCommandUseConstant              = "batch"
	batchCommandShortDescriptionConstant = "Execute a suite of plugin checks and report the worst state"
	batchCommandLongDescriptionConstant  = "batch loads a YAML suite of plugin checks, executes them sequentially through the shell-free runner, prints one line per check, and exits with the most severe plugin state observed."
	batchCommandExampleConstant          = "runcheck batch --suite /etc/runcheck/suite.yaml"
	flagSuiteNameConstant                = "suite"
	flagSuiteDescriptionConstant         = "path to the YAML suite document"
	missingSuiteMessageConstant          = "no suite path configured"
	batchSummaryTemplateConstant         = "%s: %s"
	batchWorstTemplateConstant           = "%s - worst of %d checks\n"
	suiteCheckFailureTemplateConstant    = "%s: %w"
)

var errMissingSuite = errors.New(missingSuiteMessageConstant)

// BatchCommandBuilder assembles the batch command with configurable dependencies.
type BatchCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() BatchConfiguration
	Terminator                   *plugin.Terminator
	Executor                     *runcmd.Executor
	TimeoutService               *runcmd.TimeoutService
	HumanReadableLoggingProvider func() bool
}

// Build constructs the batch command.
func (builder *BatchCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     batchCommandUseConstant,
		Short:   batchCommandShortDescriptionConstant,
		Long:    batchCommandLongDescriptionConstant,
		Example: batchCommandExampleConstant,
		RunE:    builder.run,
	}

	command.Flags().String(flagSuiteNameConstant, emptyFlagValueConstant, flagSuiteDescriptionConstant)
	command.Flags().Int(flagTimeoutNameConstant, defaultTimeoutSecondsConstant, flagTimeoutDescriptionConstant)

	return command, nil
}

// run loads the suite and executes every check, always terminating through
// the plugin terminator so internal failures surface as the unknown state
// instead of a bare non-zero process exit.
func (builder *BatchCommandBuilder) run(command *cobra.Command, _ []string) error {
	terminator := builder.resolveTerminator(command)
	configuration := builder.resolveConfiguration()

	suitePath := configuration.SuitePath
	if command.Flags().Changed(flagSuiteNameConstant) {
		suitePath, _ = command.Flags().GetString(flagSuiteNameConstant)
	}
	if len(suitePath) == 0 {
		_ = command.Help()
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), errMissingSuite))
		return nil
	}
	suitePath = builder.resolveSuitePath(command, suitePath)

	timeoutSeconds := configuration.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSecondsConstant
	}
	if command.Flags().Changed(flagTimeoutNameConstant) {
		timeoutSeconds, _ = command.Flags().GetInt(flagTimeoutNameConstant)
	}

	loadedSuite, suiteError := LoadSuite(suitePath)
	if suiteError != nil {
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), suiteError))
		return nil
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.resolveService(logger, command)
	if serviceError != nil {
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), serviceError))
		return nil
	}

	worstState := plugin.StateOK
	for _, suiteCheck := range loadedSuite.Checks {
		checkThresholds, thresholdsError := thresholds.ParseThresholds(suiteCheck.Warning, suiteCheck.Critical)
		if thresholdsError != nil {
			wrappedError := fmt.Errorf(suiteCheckFailureTemplateConstant, suiteCheck.Name, thresholdsError)
			terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), wrappedError))
			return nil
		}

		checkOutcome, checkError := service.RunCheck(CheckOptions{
			CommandLine:    suiteCheck.Command,
			Thresholds:     checkThresholds,
			TimeoutSeconds: timeoutSeconds,
		})
		if checkError != nil {
			wrappedError := fmt.Errorf(suiteCheckFailureTemplateConstant, suiteCheck.Name, checkError)
			terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), wrappedError))
			return nil
		}

		worstState = plugin.Worst(worstState, checkOutcome.State)
		fmt.Fprintf(command.OutOrStdout(), batchSummaryTemplateConstant, suiteCheck.Name, checkOutcome.Message)
	}

	terminator.Terminate(worstState, fmt.Sprintf(batchWorstTemplateConstant, worstState.Label(), len(loadedSuite.Checks)))

	return nil
}

// resolveSuitePath anchors a relative suite path at the directory of the
// configuration file that named it, when one was loaded.
func (builder *BatchCommandBuilder) resolveSuitePath(command *cobra.Command, suitePath string) string {
	if filepath.IsAbs(suitePath) {
		return suitePath
	}

	configurationFilePath, configurationFileAvailable := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	if !configurationFileAvailable || len(configurationFilePath) == 0 {
		return suitePath
	}

	return filepath.Join(filepath.Dir(configurationFilePath), suitePath)
}

func (builder *BatchCommandBuilder) resolveConfiguration() BatchConfiguration {
	if builder.ConfigurationProvider == nil {
		return BatchConfiguration{}
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *BatchCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *BatchCommandBuilder) resolveService(logger *zap.Logger, command *cobra.Command) (*Service, error) {
	executor := builder.Executor
	if executor == nil {
		builtExecutor, executorError := runcmd.NewExecutor(logger, nil)
		if executorError != nil {
			return nil, fmt.Errorf(buildingExecutorTemplateConstant, executorError)
		}
		executor = builtExecutor
	}

	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executor.SetObserver(ui.NewExecutionEventWriter(command.ErrOrStderr()))
	}

	service, serviceError := NewService(logger, executor)
	if serviceError != nil {
		return nil, serviceError
	}
	if builder.TimeoutService != nil {
		service.SetTimeoutService(builder.TimeoutService)
	}

	return service, nil
}

func (builder *BatchCommandBuilder) resolveTerminator(command *cobra.Command) *plugin.Terminator {
	if builder.Terminator != nil {
		return builder.Terminator
	}
	return plugin.NewTerminatorWithHooks(command.OutOrStdout(), nil)
}
