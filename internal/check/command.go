package check

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/runcheck/internal/plugin"
	"github.com/temirov/runcheck/internal/runcmd"
	"github.com/temirov/runcheck/internal/thresholds"
	"github.com/temirov/runcheck/internal/ui"
)

const (
	runCommandUseConstant               = "run"
	runCommandShortDescriptionConstant  = "Execute one plugin command and report its state"
	runCommandLongDescriptionConstant   = "run executes a single monitoring plugin command without a shell, optionally grades the measured value against warning and critical ranges, prints the plugin message, and exits with the plugin state."
	runCommandExampleConstant           = "runcheck run --command '/usr/lib/nagios/plugins/check_users -w 5 -c 10' --timeout 30"
	flagCommandNameConstant             = "command"
	flagCommandDescriptionConstant      = "plugin command line to execute"
	flagLabelNameConstant               = "label"
	flagLabelDescriptionConstant        = "label prefixed onto the plugin message; backslash escapes are decoded"
	flagWarningNameConstant             = "warning"
	flagWarningDescriptionConstant      = "warning range specification"
	flagCriticalNameConstant            = "critical"
	flagCriticalDescriptionConstant     = "critical range specification"
	flagTimeoutNameConstant             = "timeout"
	flagTimeoutDescriptionConstant      = "seconds before the run is killed"
	flagRawNameConstant                 = "raw"
	flagRawDescriptionConstant          = "capture output without line indexing"
	emptyFlagValueConstant              = ""
	checkFailureTemplateConstant        = "%s - %v\n"
	buildingExecutorTemplateConstant    = "building executor: %w"
	warningFlagFailureTemplateConstant  = "warning range: %w"
	criticalFlagFailureTemplateConstant = "critical range: %w"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the run command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	Terminator                   *plugin.Terminator
	Executor                     *runcmd.Executor
	TimeoutService               *runcmd.TimeoutService
	HumanReadableLoggingProvider func() bool
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     runCommandUseConstant,
		Short:   runCommandShortDescriptionConstant,
		Long:    runCommandLongDescriptionConstant,
		Example: runCommandExampleConstant,
		RunE:    builder.run,
	}

	command.Flags().String(flagCommandNameConstant, emptyFlagValueConstant, flagCommandDescriptionConstant)
	command.Flags().String(flagLabelNameConstant, emptyFlagValueConstant, flagLabelDescriptionConstant)
	command.Flags().String(flagWarningNameConstant, emptyFlagValueConstant, flagWarningDescriptionConstant)
	command.Flags().String(flagCriticalNameConstant, emptyFlagValueConstant, flagCriticalDescriptionConstant)
	command.Flags().Int(flagTimeoutNameConstant, defaultTimeoutSecondsConstant, flagTimeoutDescriptionConstant)
	command.Flags().Bool(flagRawNameConstant, false, flagRawDescriptionConstant)

	return command, nil
}

// run executes the check and always terminates through the plugin
// terminator: internal failures become the unknown state with an explanatory
// message, never a bare non-zero process exit the monitoring host would read
// as a warning.
func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	terminator := builder.resolveTerminator(command)

	options, optionsError := builder.resolveOptions(command)
	if optionsError != nil {
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), optionsError))
		return nil
	}

	if len(strings.TrimSpace(options.CommandLine)) == 0 {
		_ = command.Help()
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), errMissingCommand))
		return nil
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.resolveService(logger, command)
	if serviceError != nil {
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), serviceError))
		return nil
	}

	checkOutcome, checkError := service.RunCheck(options)
	if checkError != nil {
		terminator.Terminate(plugin.StateUnknown, fmt.Sprintf(checkFailureTemplateConstant, plugin.StateUnknown.Label(), checkError))
		return nil
	}

	terminator.Terminate(checkOutcome.State, checkOutcome.Message)

	return nil
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command) (CheckOptions, error) {
	configuration := builder.resolveConfiguration()

	options := CheckOptions{
		CommandLine: configuration.Command,
		Label:       configuration.Label,
		Thresholds: thresholds.Thresholds{
			Warning:  configuration.Warning,
			Critical: configuration.Critical,
		},
		TimeoutSeconds: configuration.TimeoutSeconds,
		RawOutput:      configuration.RawOutput,
	}
	if options.TimeoutSeconds == 0 {
		options.TimeoutSeconds = defaultTimeoutSecondsConstant
	}

	if command.Flags().Changed(flagCommandNameConstant) {
		options.CommandLine, _ = command.Flags().GetString(flagCommandNameConstant)
	}
	if command.Flags().Changed(flagLabelNameConstant) {
		options.Label, _ = command.Flags().GetString(flagLabelNameConstant)
	}
	if command.Flags().Changed(flagWarningNameConstant) {
		warningSpecification, _ := command.Flags().GetString(flagWarningNameConstant)
		warningRange, warningParseError := thresholds.ParseRange(warningSpecification)
		if warningParseError != nil {
			return CheckOptions{}, fmt.Errorf(warningFlagFailureTemplateConstant, warningParseError)
		}
		options.Thresholds.Warning = warningRange
	}
	if command.Flags().Changed(flagCriticalNameConstant) {
		criticalSpecification, _ := command.Flags().GetString(flagCriticalNameConstant)
		criticalRange, criticalParseError := thresholds.ParseRange(criticalSpecification)
		if criticalParseError != nil {
			return CheckOptions{}, fmt.Errorf(criticalFlagFailureTemplateConstant, criticalParseError)
		}
		options.Thresholds.Critical = criticalRange
	}
	if command.Flags().Changed(flagTimeoutNameConstant) {
		options.TimeoutSeconds, _ = command.Flags().GetInt(flagTimeoutNameConstant)
	}
	if command.Flags().Changed(flagRawNameConstant) {
		options.RawOutput, _ = command.Flags().GetBool(flagRawNameConstant)
	}

	return options, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger, command *cobra.Command) (*Service, error) {
	executor := builder.Executor
	if executor == nil {
		builtExecutor, executorError := runcmd.NewExecutor(logger, nil)
		if executorError != nil {
			return nil, fmt.Errorf(buildingExecutorTemplateConstant, executorError)
		}
		executor = builtExecutor
	}

	if builder.humanReadableLoggingEnabled() {
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

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveTerminator(command *cobra.Command) *plugin.Terminator {
	if builder.Terminator != nil {
		return builder.Terminator
	}
	return plugin.NewTerminatorWithHooks(command.OutOrStdout(), nil)
}
