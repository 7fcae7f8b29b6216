// Package runcmd executes external commands without spawning a shell.
//
// It tokenizes a command string into an argument vector, starts the child
// with pipes attached to its standard output and standard error, captures and
// line-indexes the output, and reaps the child into a normalized exit code.
// A process-wide handle registry tracks every live child so the timeout
// service can deliver a kill signal to all of them before terminating the
// plugin.
package runcmd
