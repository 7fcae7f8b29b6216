package runcmd

import (
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const (
	timeoutAnnouncementMessageConstant = "CRITICAL - Plugin timed out while executing system call\n"
	timeoutExitStatusConstant          = 2
)

// KillFunction delivers a forceful kill signal to one process identifier.
type KillFunction func(processIdentifier int) error

// TerminateFunction ends the calling process with the given status.
type TerminateFunction func(exitStatus int)

// TimeoutService terminates the whole process once an externally armed
// deadline expires. It fires asynchronously with respect to any command in
// flight, so its contract is deliberately narrow: announce the timeout,
// signal every still-registered child, and exit with the fixed timeout
// status. Its only dependency on shared state is read-only iteration over
// the registry's atomic pid slots.
type TimeoutService struct {
	registry          *HandleRegistry
	announcementSink  io.Writer
	killFunction      KillFunction
	terminateFunction TerminateFunction
	expiryTimer       *time.Timer
}

// NewTimeoutService builds a timeout service bound to the given registry,
// killing with SIGKILL and terminating via os.Exit.
func NewTimeoutService(registry *HandleRegistry) *TimeoutService {
	return &TimeoutService{
		registry:         registry,
		announcementSink: os.Stdout,
		killFunction: func(processIdentifier int) error {
			return unix.Kill(processIdentifier, unix.SIGKILL)
		},
		terminateFunction: os.Exit,
	}
}

// NewTimeoutServiceWithHooks builds a timeout service with replaceable kill,
// terminate, and announcement behavior for tests.
func NewTimeoutServiceWithHooks(registry *HandleRegistry, announcementSink io.Writer, killFunction KillFunction, terminateFunction TerminateFunction) *TimeoutService {
	service := NewTimeoutService(registry)
	if announcementSink != nil {
		service.announcementSink = announcementSink
	}
	if killFunction != nil {
		service.killFunction = killFunction
	}
	if terminateFunction != nil {
		service.terminateFunction = terminateFunction
	}
	return service
}

// Arm schedules Fire after the given duration. Re-arming replaces the
// previous deadline.
func (service *TimeoutService) Arm(expiry time.Duration) {
	service.Disarm()
	service.expiryTimer = time.AfterFunc(expiry, service.Fire)
}

// Disarm cancels a pending deadline. A deadline that already fired has
// terminated the process, so Disarm is only meaningful before expiry.
func (service *TimeoutService) Disarm() {
	if service.expiryTimer != nil {
		service.expiryTimer.Stop()
		service.expiryTimer = nil
	}
}

// Fire announces the timeout, delivers the kill signal to every
// still-registered child, and terminates the process with the fixed timeout
// status. The fire path allocates nothing and performs only atomic loads on
// the shared slot table.
func (service *TimeoutService) Fire() {
	_, _ = io.WriteString(service.announcementSink, timeoutAnnouncementMessageConstant)

	service.registry.ForEachLive(func(_ Handle, processIdentifier int) {
		_ = service.killFunction(processIdentifier)
	})

	service.terminateFunction(timeoutExitStatusConstant)
}
