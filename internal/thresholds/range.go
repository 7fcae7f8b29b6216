package thresholds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	alertInsidePrefixConstant          = "@"
	openStartMarkerConstant            = "~"
	rangeSeparatorConstant             = ":"
	emptyRangeMessageConstant          = "range specification is empty"
	invalidBoundaryTemplateConstant    = "%w: %q"
	invalidBoundaryMessageConstant     = "range boundary is not numeric"
	invertedRangeMessageConstant       = "range start exceeds range end"
	rangeSplitPartCountConstant        = 2
	describeUnboundedLabelConstant     = "~"
	describeInsideTemplateConstant     = "@%s:%s"
	describeOutsideTemplateConstant    = "%s:%s"
	describeBoundaryFormatByteConstant = 'g'
	describeBoundaryPrecisionConstant  = -1
	describeBoundaryBitSizeConstant    = 64
)

// Exported range parsing failures.
var (
	// ErrEmptyRange reports a blank range specification.
	ErrEmptyRange = errors.New(emptyRangeMessageConstant)
	// ErrInvalidBoundary reports a non-numeric range boundary.
	ErrInvalidBoundary = errors.New(invalidBoundaryMessageConstant)
	// ErrInvertedRange reports a start boundary above the end boundary.
	ErrInvertedRange = errors.New(invertedRangeMessageConstant)
)

// Range describes one alerting interval. With AlertInside false an alert is
// raised for values outside [Start, End]; the "@" prefix inverts that.
// StartUnbounded and EndUnbounded mark open interval ends.
type Range struct {
	Start          float64
	End            float64
	StartUnbounded bool
	EndUnbounded   bool
	AlertInside    bool
}

// ParseRange decodes a "[@]start:end" specification. A bare value is an end
// boundary with an implicit start of zero; "~" opens the start; an empty end
// leaves the range unbounded above.
func ParseRange(specification string) (*Range, error) {
	trimmedSpecification := strings.TrimSpace(specification)
	if len(trimmedSpecification) == 0 {
		return nil, ErrEmptyRange
	}

	parsedRange := &Range{EndUnbounded: true}

	if strings.HasPrefix(trimmedSpecification, alertInsidePrefixConstant) {
		parsedRange.AlertInside = true
		trimmedSpecification = trimmedSpecification[len(alertInsidePrefixConstant):]
	}

	startSpecification := ""
	endSpecification := trimmedSpecification
	if strings.Contains(trimmedSpecification, rangeSeparatorConstant) {
		separatedParts := strings.SplitN(trimmedSpecification, rangeSeparatorConstant, rangeSplitPartCountConstant)
		startSpecification = separatedParts[0]
		endSpecification = separatedParts[1]

		switch startSpecification {
		case openStartMarkerConstant:
			parsedRange.StartUnbounded = true
		case "":
			parsedRange.Start = 0
		default:
			startBoundary, startParseError := strconv.ParseFloat(startSpecification, describeBoundaryBitSizeConstant)
			if startParseError != nil {
				return nil, fmt.Errorf(invalidBoundaryTemplateConstant, ErrInvalidBoundary, startSpecification)
			}
			parsedRange.Start = startBoundary
		}
	}

	if len(endSpecification) > 0 {
		endBoundary, endParseError := strconv.ParseFloat(endSpecification, describeBoundaryBitSizeConstant)
		if endParseError != nil {
			return nil, fmt.Errorf(invalidBoundaryTemplateConstant, ErrInvalidBoundary, endSpecification)
		}
		parsedRange.End = endBoundary
		parsedRange.EndUnbounded = false
	}

	if !parsedRange.StartUnbounded && !parsedRange.EndUnbounded && parsedRange.Start > parsedRange.End {
		return nil, fmt.Errorf("%w", ErrInvertedRange)
	}

	return parsedRange, nil
}

// Violates reports whether the value raises an alert for this range.
func (alertRange *Range) Violates(value float64) bool {
	withinInterval := true
	if !alertRange.StartUnbounded && value < alertRange.Start {
		withinInterval = false
	}
	if !alertRange.EndUnbounded && value > alertRange.End {
		withinInterval = false
	}

	if alertRange.AlertInside {
		return withinInterval
	}
	return !withinInterval
}

// Describe renders the range back into specification form.
func (alertRange *Range) Describe() string {
	startLabel := formatBoundary(alertRange.Start)
	if alertRange.StartUnbounded {
		startLabel = describeUnboundedLabelConstant
	}

	endLabel := ""
	if !alertRange.EndUnbounded {
		endLabel = formatBoundary(alertRange.End)
	}

	if alertRange.AlertInside {
		return fmt.Sprintf(describeInsideTemplateConstant, startLabel, endLabel)
	}
	return fmt.Sprintf(describeOutsideTemplateConstant, startLabel, endLabel)
}

func formatBoundary(boundary float64) string {
	return strconv.FormatFloat(boundary, describeBoundaryFormatByteConstant, describeBoundaryPrecisionConstant, describeBoundaryBitSizeConstant)
}
