// Package check implements the runcheck CLI commands that execute
// monitoring plugin commands through the shell-free runner, evaluate
// measured values against warning and critical ranges, and terminate with
// the normalized plugin state.
package check
