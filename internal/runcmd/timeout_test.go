package runcmd_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/temirov/runcheck/internal/runcmd"
)

const (
	testSleepCommandConstant             = "/bin/sleep 30"
	testTimeoutExitStatusConstant        = 2
	testTimeoutAnnouncementConstant      = "CRITICAL - Plugin timed out while executing system call\n"
	testArmedTimeoutDurationConstant     = 25 * time.Millisecond
	testTimeoutWaitPatienceConstant      = 5 * time.Second
	testRecordedKillPollIntervalConstant = 10 * time.Millisecond
)

func spawnSleepingChild(testInstance *testing.T, registry *runcmd.HandleRegistry) runcmd.Handle {
	argumentVector, tokenizeError := runcmd.SplitCommand(testSleepCommandConstant)
	require.NoError(testInstance, tokenizeError)

	executionHandle, spawnError := registry.Spawn(runcmd.SpawnConfiguration{Arguments: argumentVector})
	require.NoError(testInstance, spawnError)
	return executionHandle
}

func TestTimeoutServiceFireKillsRegisteredChildren(testInstance *testing.T) {
	registry := runcmd.DefaultRegistry()
	executionHandle := spawnSleepingChild(testInstance, registry)

	var announcementBuffer bytes.Buffer
	recordedKills := []int{}
	recordedStatuses := []int{}

	service := runcmd.NewTimeoutServiceWithHooks(
		registry,
		&announcementBuffer,
		func(processIdentifier int) error {
			recordedKills = append(recordedKills, processIdentifier)
			return unix.Kill(processIdentifier, unix.SIGKILL)
		},
		func(exitStatus int) {
			recordedStatuses = append(recordedStatuses, exitStatus)
		},
	)

	service.Fire()

	require.Equal(testInstance, testTimeoutAnnouncementConstant, announcementBuffer.String())
	require.Len(testInstance, recordedKills, 1)
	require.Equal(testInstance, []int{testTimeoutExitStatusConstant}, recordedStatuses)

	exitCode, closeError := registry.Close(executionHandle)
	require.NoError(testInstance, closeError)
	require.Equal(testInstance, runcmd.ExitCodeAbnormalTermination, exitCode)
}

func TestTimeoutServiceArmFiresAfterDeadline(testInstance *testing.T) {
	registry := runcmd.DefaultRegistry()
	executionHandle := spawnSleepingChild(testInstance, registry)

	terminated := make(chan int, 1)
	service := runcmd.NewTimeoutServiceWithHooks(
		registry,
		&bytes.Buffer{},
		nil,
		func(exitStatus int) {
			terminated <- exitStatus
		},
	)

	service.Arm(testArmedTimeoutDurationConstant)

	select {
	case exitStatus := <-terminated:
		require.Equal(testInstance, testTimeoutExitStatusConstant, exitStatus)
	case <-time.After(testTimeoutWaitPatienceConstant):
		testInstance.Fatal("timeout service did not fire")
	}

	exitCode, closeError := registry.Close(executionHandle)
	require.NoError(testInstance, closeError)
	require.Equal(testInstance, runcmd.ExitCodeAbnormalTermination, exitCode)
}

func TestTimeoutServiceDisarmPreventsFiring(testInstance *testing.T) {
	registry := runcmd.NewHandleRegistry(8)

	terminated := make(chan int, 1)
	service := runcmd.NewTimeoutServiceWithHooks(
		registry,
		&bytes.Buffer{},
		func(int) error { return nil },
		func(exitStatus int) {
			terminated <- exitStatus
		},
	)

	service.Arm(testArmedTimeoutDurationConstant)
	service.Disarm()

	select {
	case <-terminated:
		testInstance.Fatal("disarmed timeout service fired")
	case <-time.After(testRecordedKillPollIntervalConstant * 10):
	}
}
