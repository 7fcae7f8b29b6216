package check

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	emptySuiteMessageConstant                = "suite defines no checks"
	suiteCheckMissingCommandTemplateConstant = "suite check %q defines no command"
	suiteReadFailureTemplateConstant         = "reading suite %s: %w"
	suiteDecodeFailureTemplateConstant       = "decoding suite %s: %w"
	unnamedCheckTemplateConstant             = "check-%d"
)

var errEmptySuite = errors.New(emptySuiteMessageConstant)

// SuiteCheck is one named plugin check inside a suite document.
type SuiteCheck struct {
	Name     string `yaml:"name"`
	Command  string `yaml:"command"`
	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`
}

// Suite is a YAML document describing a sequence of plugin checks.
type Suite struct {
	Checks []SuiteCheck `yaml:"checks"`
}

// LoadSuite reads and validates a suite document from the given path. Checks
// without a name receive a positional one; checks without a command are
// rejected.
func LoadSuite(suitePath string) (Suite, error) {
	suiteContents, readError := os.ReadFile(suitePath)
	if readError != nil {
		return Suite{}, fmt.Errorf(suiteReadFailureTemplateConstant, suitePath, readError)
	}

	var loadedSuite Suite
	if decodeError := yaml.Unmarshal(suiteContents, &loadedSuite); decodeError != nil {
		return Suite{}, fmt.Errorf(suiteDecodeFailureTemplateConstant, suitePath, decodeError)
	}

	if len(loadedSuite.Checks) == 0 {
		return Suite{}, errEmptySuite
	}

	for checkIndex := range loadedSuite.Checks {
		suiteCheck := &loadedSuite.Checks[checkIndex]
		suiteCheck.Name = strings.TrimSpace(suiteCheck.Name)
		if len(suiteCheck.Name) == 0 {
			suiteCheck.Name = fmt.Sprintf(unnamedCheckTemplateConstant, checkIndex+1)
		}
		suiteCheck.Command = strings.TrimSpace(suiteCheck.Command)
		if len(suiteCheck.Command) == 0 {
			return Suite{}, fmt.Errorf(suiteCheckMissingCommandTemplateConstant, suiteCheck.Name)
		}
	}

	return loadedSuite, nil
}
