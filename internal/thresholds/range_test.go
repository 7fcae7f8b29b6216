package thresholds_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/runcheck/internal/plugin"
	"github.com/temirov/runcheck/internal/thresholds"
)

const (
	testBareEndCaseNameConstant        = "bare_end"
	testStartEndCaseNameConstant       = "start_and_end"
	testOpenStartCaseNameConstant      = "open_start"
	testOpenEndCaseNameConstant        = "open_end"
	testInsideAlertCaseNameConstant    = "inside_alerting"
	testEmptyStartCaseNameConstant     = "empty_start"
	testInvertedCaseNameConstant       = "inverted_range"
	testNonNumericCaseNameConstant     = "non_numeric_boundary"
	testEmptyRangeCaseNameConstant     = "empty_specification"
	testNegativeBoundsCaseNameConstant = "negative_bounds"
)

func TestParseRange(testInstance *testing.T) {
	testCases := []struct {
		name              string
		specification     string
		expectedError     error
		violatingValues   []float64
		acceptableValues  []float64
		expectedDescribed string
	}{
		{
			name:              testBareEndCaseNameConstant,
			specification:     "10",
			violatingValues:   []float64{-0.1, 10.1},
			acceptableValues:  []float64{0, 5, 10},
			expectedDescribed: "0:10",
		},
		{
			name:              testStartEndCaseNameConstant,
			specification:     "5:10",
			violatingValues:   []float64{4.9, 10.5},
			acceptableValues:  []float64{5, 7.5, 10},
			expectedDescribed: "5:10",
		},
		{
			name:              testOpenStartCaseNameConstant,
			specification:     "~:10",
			violatingValues:   []float64{10.5},
			acceptableValues:  []float64{-1000, 0, 10},
			expectedDescribed: "~:10",
		},
		{
			name:              testOpenEndCaseNameConstant,
			specification:     "10:",
			violatingValues:   []float64{9.9},
			acceptableValues:  []float64{10, 10000},
			expectedDescribed: "10:",
		},
		{
			name:              testInsideAlertCaseNameConstant,
			specification:     "@5:10",
			violatingValues:   []float64{5, 7, 10},
			acceptableValues:  []float64{4.9, 10.1},
			expectedDescribed: "@5:10",
		},
		{
			name:              testEmptyStartCaseNameConstant,
			specification:     ":10",
			violatingValues:   []float64{-1, 11},
			acceptableValues:  []float64{0, 10},
			expectedDescribed: "0:10",
		},
		{
			name:              testNegativeBoundsCaseNameConstant,
			specification:     "-20:-10",
			violatingValues:   []float64{-21, -9},
			acceptableValues:  []float64{-20, -15, -10},
			expectedDescribed: "-20:-10",
		},
		{
			name:          testInvertedCaseNameConstant,
			specification: "10:5",
			expectedError: thresholds.ErrInvertedRange,
		},
		{
			name:          testNonNumericCaseNameConstant,
			specification: "low:high",
			expectedError: thresholds.ErrInvalidBoundary,
		},
		{
			name:          testEmptyRangeCaseNameConstant,
			specification: "   ",
			expectedError: thresholds.ErrEmptyRange,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRange, parseError := thresholds.ParseRange(testCase.specification)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, parseError, testCase.expectedError)
				return
			}

			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedDescribed, parsedRange.Describe())

			for _, violatingValue := range testCase.violatingValues {
				require.True(testInstance, parsedRange.Violates(violatingValue), "value %v should violate %s", violatingValue, testCase.specification)
			}
			for _, acceptableValue := range testCase.acceptableValues {
				require.False(testInstance, parsedRange.Violates(acceptableValue), "value %v should satisfy %s", acceptableValue, testCase.specification)
			}
		})
	}
}

func TestThresholdsEvaluation(testInstance *testing.T) {
	parsedThresholds, parseError := thresholds.ParseThresholds("10", "20")
	require.NoError(testInstance, parseError)
	require.True(testInstance, parsedThresholds.Configured())

	require.Equal(testInstance, plugin.StateOK, parsedThresholds.Evaluate(5))
	require.Equal(testInstance, plugin.StateWarning, parsedThresholds.Evaluate(15))
	require.Equal(testInstance, plugin.StateCritical, parsedThresholds.Evaluate(25))
}

func TestThresholdsWithoutRangesNeverRaise(testInstance *testing.T) {
	parsedThresholds, parseError := thresholds.ParseThresholds("", "")
	require.NoError(testInstance, parseError)
	require.False(testInstance, parsedThresholds.Configured())
	require.Equal(testInstance, plugin.StateOK, parsedThresholds.Evaluate(1000000))
}

func TestParseThresholdsRejectsInvalidRanges(testInstance *testing.T) {
	_, warningError := thresholds.ParseThresholds("bogus", "")
	require.ErrorIs(testInstance, warningError, thresholds.ErrInvalidBoundary)

	_, criticalError := thresholds.ParseThresholds("", "10:5")
	require.ErrorIs(testInstance, criticalError, thresholds.ErrInvertedRange)
}
