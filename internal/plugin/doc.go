// Package plugin defines the monitoring-plugin protocol surface: exit
// states, the terminate primitive that reports a message and ends the
// process, and string helpers applied to plugin output.
package plugin
