package check_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/runcheck/internal/check"
)

const (
	testSuiteFileNameConstant = "suite.yaml"
	testSuiteDocumentConstant = `checks:
  - name: load
    command: /bin/echo 3
    warning: "5"
    critical: "10"
  - command: /bin/true
`
	testSuiteMissingCommandDocumentConstant = `checks:
  - name: broken
`
	testSuiteInvertedRangeDocumentConstant = `checks:
  - name: load
    command: /bin/echo 3
    warning: "10:5"
`
	testSuiteEmptyDocumentConstant   = `checks: []`
	testSuiteInvalidDocumentConstant = `checks: [`
)

func writeSuiteDocument(testInstance *testing.T, document string) string {
	testInstance.Helper()

	suitePath := filepath.Join(testInstance.TempDir(), testSuiteFileNameConstant)
	require.NoError(testInstance, os.WriteFile(suitePath, []byte(document), 0o600))
	return suitePath
}

func TestLoadSuiteParsesChecks(testInstance *testing.T) {
	suitePath := writeSuiteDocument(testInstance, testSuiteDocumentConstant)

	loadedSuite, loadError := check.LoadSuite(suitePath)

	require.NoError(testInstance, loadError)
	require.Len(testInstance, loadedSuite.Checks, 2)
	require.Equal(testInstance, "load", loadedSuite.Checks[0].Name)
	require.Equal(testInstance, "/bin/echo 3", loadedSuite.Checks[0].Command)
	require.Equal(testInstance, "5", loadedSuite.Checks[0].Warning)
	require.Equal(testInstance, "10", loadedSuite.Checks[0].Critical)
	require.Equal(testInstance, "check-2", loadedSuite.Checks[1].Name)
	require.Equal(testInstance, "/bin/true", loadedSuite.Checks[1].Command)
}

func TestLoadSuiteRejectsInvalidDocuments(testInstance *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{name: "empty_checks", document: testSuiteEmptyDocumentConstant},
		{name: "missing_command", document: testSuiteMissingCommandDocumentConstant},
		{name: "invalid_yaml", document: testSuiteInvalidDocumentConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			suitePath := writeSuiteDocument(subtest, testCase.document)

			_, loadError := check.LoadSuite(suitePath)

			require.Error(subtest, loadError)
		})
	}
}

func TestLoadSuiteReportsMissingFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), testSuiteFileNameConstant)

	_, loadError := check.LoadSuite(missingPath)

	require.Error(testInstance, loadError)
}
