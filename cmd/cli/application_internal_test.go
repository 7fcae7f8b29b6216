package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/runcheck/internal/utils"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = `common:
  log_level: debug
  log_format: console
tools:
  check:
    command: /bin/echo 3
    warning: "5"
    timeout_seconds: 30
  batch:
    suite: /etc/runcheck/suite.yaml
`
	testRunCommandNameConstant   = "run"
	testBatchCommandNameConstant = "batch"
)

func TestNewApplicationRegistersSubcommands(t *testing.T) {
	application := NewApplication()

	registeredNames := map[string]bool{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredNames[registeredCommand.Name()] = true
	}

	require.True(t, registeredNames[testRunCommandNameConstant])
	require.True(t, registeredNames[testBatchCommandNameConstant])
}

func TestInitializeConfigurationAppliesDefaults(t *testing.T) {
	application := NewApplication()

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(t, initializationError)

	require.Equal(t, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(t, 10, application.configuration.Tools.Check.TimeoutSeconds)
	require.Equal(t, 10, application.configuration.Tools.Batch.TimeoutSeconds)
	require.False(t, application.humanReadableLoggingEnabled())
}

func TestInitializeConfigurationLoadsConfigurationFile(t *testing.T) {
	temporaryDirectory := t.TempDir()
	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	application := NewApplication()
	application.configurationFilePath = configurationPath

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(t, initializationError)

	require.Equal(t, "/bin/echo 3", application.configuration.Tools.Check.Command)
	require.NotNil(t, application.configuration.Tools.Check.Warning)
	require.Equal(t, "0:5", application.configuration.Tools.Check.Warning.Describe())
	require.Nil(t, application.configuration.Tools.Check.Critical)
	require.Equal(t, 30, application.configuration.Tools.Check.TimeoutSeconds)
	require.Equal(t, "/etc/runcheck/suite.yaml", application.configuration.Tools.Batch.SuitePath)
	require.Equal(t, configurationPath, application.configurationMetadata.ConfigFileUsed)
	require.True(t, application.humanReadableLoggingEnabled())
}

func TestInitializeConfigurationHonorsFlagOverrides(t *testing.T) {
	application := NewApplication()
	require.NoError(t, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "warn"))
	require.NoError(t, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "console"))

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(t, initializationError)

	require.Equal(t, "warn", application.configuration.Common.LogLevel)
	require.Equal(t, "console", application.configuration.Common.LogFormat)
	require.True(t, application.humanReadableLoggingEnabled())
}
