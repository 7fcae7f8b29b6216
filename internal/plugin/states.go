package plugin

import (
	"fmt"
	"io"
	"os"
)

const (
	stateOKLabelConstant             = "OK"
	stateWarningLabelConstant        = "WARNING"
	stateCriticalLabelConstant       = "CRITICAL"
	stateUnknownLabelConstant        = "UNKNOWN"
	stateDependentLabelConstant      = "DEPENDENT"
	terminateMessageTemplateConstant = "%s"
)

// State is a monitoring-plugin exit state.
type State int

// Plugin exit states in protocol order.
const (
	StateOK State = iota
	StateWarning
	StateCritical
	StateUnknown
	StateDependent
)

var stateLabelMapping = map[State]string{
	StateOK:        stateOKLabelConstant,
	StateWarning:   stateWarningLabelConstant,
	StateCritical:  stateCriticalLabelConstant,
	StateUnknown:   stateUnknownLabelConstant,
	StateDependent: stateDependentLabelConstant,
}

// Label returns the protocol name of the state, UNKNOWN for values outside
// the protocol range.
func (state State) Label() string {
	label, labelExists := stateLabelMapping[state]
	if !labelExists {
		return stateUnknownLabelConstant
	}
	return label
}

// ExitStatus returns the numeric process exit status for the state.
func (state State) ExitStatus() int {
	return int(state)
}

// severityRanking orders states for Worst: a critical result always
// dominates, unknown outranks only a clean result.
var severityRanking = map[State]int{
	StateOK:        0,
	StateDependent: 1,
	StateUnknown:   2,
	StateWarning:   3,
	StateCritical:  4,
}

// Worst returns the more severe of two states.
func Worst(firstState State, secondState State) State {
	if severityRanking[secondState] > severityRanking[firstState] {
		return secondState
	}
	return firstState
}

// ExitFunction ends the process with the given status.
type ExitFunction func(exitStatus int)

// Terminator prints a final plugin message and ends the process with the
// state's exit status. The exit behavior is replaceable for tests.
type Terminator struct {
	outputWriter io.Writer
	exitFunction ExitFunction
}

// NewTerminator builds the production terminator writing to standard output
// and exiting the process.
func NewTerminator() *Terminator {
	return NewTerminatorWithHooks(os.Stdout, os.Exit)
}

// NewTerminatorWithHooks builds a terminator with replaceable output and
// exit behavior.
func NewTerminatorWithHooks(outputWriter io.Writer, exitFunction ExitFunction) *Terminator {
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	if exitFunction == nil {
		exitFunction = os.Exit
	}

	return &Terminator{
		outputWriter: outputWriter,
		exitFunction: exitFunction,
	}
}

// Terminate prints the message and ends the process with the state's exit
// status.
func (terminator *Terminator) Terminate(state State, message string) {
	fmt.Fprintf(terminator.outputWriter, terminateMessageTemplateConstant, message)
	terminator.exitFunction(state.ExitStatus())
}
