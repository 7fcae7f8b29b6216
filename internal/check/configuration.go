package check

import (
	"strings"

	"github.com/temirov/runcheck/internal/thresholds"
)

const (
	defaultTimeoutSecondsConstant = 10

	timeoutConfigurationSuffixConstant = ".timeout_seconds"
)

// CommandConfiguration captures configuration values for the run command.
// The warning and critical ranges decode from specification strings through
// the thresholds range decode hook; nil means the range is not configured.
type CommandConfiguration struct {
	Command        string            `mapstructure:"command"`
	Label          string            `mapstructure:"label"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	Warning        *thresholds.Range `mapstructure:"warning"`
	Critical       *thresholds.Range `mapstructure:"critical"`
	RawOutput      bool              `mapstructure:"raw"`
}

// BatchConfiguration captures configuration values for the batch command.
type BatchConfiguration struct {
	SuitePath      string `mapstructure:"suite"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DefaultCommandConfigurationValues provides baseline configuration for the
// run command keyed under the given prefix.
func DefaultCommandConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		configurationPrefix + timeoutConfigurationSuffixConstant: defaultTimeoutSecondsConstant,
	}
}

// DefaultBatchConfigurationValues provides baseline configuration for the
// batch command keyed under the given prefix.
func DefaultBatchConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		configurationPrefix + timeoutConfigurationSuffixConstant: defaultTimeoutSecondsConstant,
	}
}

// sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Command = strings.TrimSpace(configuration.Command)
	sanitized.Label = strings.TrimSpace(configuration.Label)
	return sanitized
}

// sanitize trims configuration values without applying implicit defaults.
func (configuration BatchConfiguration) sanitize() BatchConfiguration {
	sanitized := configuration
	sanitized.SuitePath = strings.TrimSpace(configuration.SuitePath)
	return sanitized
}
