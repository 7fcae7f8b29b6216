package thresholds

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/runcheck/internal/plugin"
)

const (
	warningRangeFailureTemplateConstant  = "warning range: %w"
	criticalRangeFailureTemplateConstant = "critical range: %w"
	describeThresholdsTemplateConstant   = "warning=%s critical=%s"
	describeUnsetLabelConstant           = "unset"
)

// Thresholds pairs an optional warning range with an optional critical
// range. A nil range never raises.
type Thresholds struct {
	Warning  *Range
	Critical *Range
}

// ParseThresholds decodes both range specifications; empty specifications
// leave the corresponding range unset.
func ParseThresholds(warningSpecification string, criticalSpecification string) (Thresholds, error) {
	parsedThresholds := Thresholds{}

	if len(warningSpecification) > 0 {
		warningRange, warningParseError := ParseRange(warningSpecification)
		if warningParseError != nil {
			return Thresholds{}, fmt.Errorf(warningRangeFailureTemplateConstant, warningParseError)
		}
		parsedThresholds.Warning = warningRange
	}

	if len(criticalSpecification) > 0 {
		criticalRange, criticalParseError := ParseRange(criticalSpecification)
		if criticalParseError != nil {
			return Thresholds{}, fmt.Errorf(criticalRangeFailureTemplateConstant, criticalParseError)
		}
		parsedThresholds.Critical = criticalRange
	}

	return parsedThresholds, nil
}

// Evaluate maps a measured value onto a plugin state. The critical range is
// checked before the warning range.
func (thresholds Thresholds) Evaluate(value float64) plugin.State {
	if thresholds.Critical != nil && thresholds.Critical.Violates(value) {
		return plugin.StateCritical
	}
	if thresholds.Warning != nil && thresholds.Warning.Violates(value) {
		return plugin.StateWarning
	}
	return plugin.StateOK
}

// Configured reports whether any range is set.
func (thresholds Thresholds) Configured() bool {
	return thresholds.Warning != nil || thresholds.Critical != nil
}

// Describe renders both ranges for diagnostics.
func (thresholds Thresholds) Describe() string {
	warningLabel := describeUnsetLabelConstant
	if thresholds.Warning != nil {
		warningLabel = thresholds.Warning.Describe()
	}

	criticalLabel := describeUnsetLabelConstant
	if thresholds.Critical != nil {
		criticalLabel = thresholds.Critical.Describe()
	}

	return fmt.Sprintf(describeThresholdsTemplateConstant, warningLabel, criticalLabel)
}

// RangeDecodeHook converts range specification strings into Range values
// while unmarshaling configuration. Both Range and *Range targets are
// supported so optional ranges can stay nil when unconfigured.
func RangeDecodeHook() mapstructure.DecodeHookFuncType {
	rangeType := reflect.TypeOf(Range{})
	rangePointerType := reflect.TypeOf(&Range{})

	return func(sourceType reflect.Type, targetType reflect.Type, sourceValue any) (any, error) {
		if sourceType.Kind() != reflect.String {
			return sourceValue, nil
		}
		if targetType != rangeType && targetType != rangePointerType {
			return sourceValue, nil
		}

		parsedRange, parseError := ParseRange(sourceValue.(string))
		if parseError != nil {
			return nil, parseError
		}

		if targetType == rangePointerType {
			return parsedRange, nil
		}
		return *parsedRange, nil
	}
}
