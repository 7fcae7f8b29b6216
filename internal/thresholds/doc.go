// Package thresholds parses and evaluates monitoring-plugin range
// specifications of the form "[@]start:end", where "~" marks an open start
// and a missing end leaves the range unbounded above. A value violating the
// critical range dominates one violating the warning range.
package thresholds
