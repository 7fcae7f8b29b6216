package runcmd

import (
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const (
	fallbackDescriptorLimitConstant = 256
	maximumDescriptorLimitConstant  = 65536
	freeSlotSentinelConstant        = int32(0)
)

// Handle identifies one in-flight or recently closed child execution. Its
// numeric value equals the read end of the child's standard output pipe,
// which is unique among concurrently open handles and reused only after the
// handle is closed.
type Handle int

// handleEntry stores the per-handle process state owned exclusively by the
// spawning and reaping flow. The timeout service never touches entries; it
// only loads pid slots.
type handleEntry struct {
	process            *os.Process
	standardOutputPipe *os.File
	standardErrorPipe  *os.File
}

// HandleRegistry maps execution handles to child process identifiers in a
// fixed-size table indexed by descriptor value. Every slot mutation is a
// single atomic word write, never a read-modify-write sequence, so the
// asynchronously firing timeout service can enumerate live children without
// locks.
type HandleRegistry struct {
	processIdentifierSlots []atomic.Int32
	entries                []handleEntry
}

// NewHandleRegistry builds a registry with the requested slot capacity.
// Capacities below one fall back to the package default.
func NewHandleRegistry(slotCapacity int) *HandleRegistry {
	if slotCapacity < 1 {
		slotCapacity = fallbackDescriptorLimitConstant
	}

	return &HandleRegistry{
		processIdentifierSlots: make([]atomic.Int32, slotCapacity),
		entries:                make([]handleEntry, slotCapacity),
	}
}

var (
	defaultRegistryGuard    sync.Once
	defaultRegistryInstance *HandleRegistry
)

// DefaultRegistry returns the process-wide registry, creating it on first
// use. Initialization is idempotent: the table is allocated once, sized to
// the soft descriptor limit discovered at runtime (capped, with a safe
// fallback when discovery fails), and core-dump generation is disabled for
// this process and every child it spawns.
func DefaultRegistry() *HandleRegistry {
	defaultRegistryGuard.Do(func() {
		defaultRegistryInstance = NewHandleRegistry(discoverDescriptorLimit())
		disableCoreDumps()
	})

	return defaultRegistryInstance
}

// Capacity reports the number of slots in the registry table.
func (registry *HandleRegistry) Capacity() int {
	return len(registry.processIdentifierSlots)
}

// register publishes the entry for the handle and then stores the child pid
// in the slot. The entry write precedes the slot store so that a concurrent
// enumerator observing a non-zero slot always corresponds to a running,
// not-yet-reaped child.
func (registry *HandleRegistry) register(handle Handle, processIdentifier int, entry handleEntry) bool {
	if !registry.handleWithinBounds(handle) {
		return false
	}

	registry.entries[handle] = entry
	registry.processIdentifierSlots[handle].Store(int32(processIdentifier))
	return true
}

// unregister clears the slot with a single atomic swap and returns the pid
// it held, zero when the handle was free. The slot is cleared before the
// caller blocks on the child so a timeout firing concurrently cannot
// re-signal a handle already being reaped.
func (registry *HandleRegistry) unregister(handle Handle) int {
	if !registry.handleWithinBounds(handle) {
		return int(freeSlotSentinelConstant)
	}

	return int(registry.processIdentifierSlots[handle].Swap(freeSlotSentinelConstant))
}

// takeEntry removes and returns the per-handle process state.
func (registry *HandleRegistry) takeEntry(handle Handle) handleEntry {
	if !registry.handleWithinBounds(handle) {
		return handleEntry{}
	}

	entry := registry.entries[handle]
	registry.entries[handle] = handleEntry{}
	return entry
}

// lookupEntry returns the per-handle process state without removing it,
// reporting whether the handle is currently registered.
func (registry *HandleRegistry) lookupEntry(handle Handle) (handleEntry, bool) {
	if !registry.handleWithinBounds(handle) {
		return handleEntry{}, false
	}

	if registry.processIdentifierSlots[handle].Load() == freeSlotSentinelConstant {
		return handleEntry{}, false
	}

	return registry.entries[handle], true
}

// ForEachLive invokes the callback for every slot holding a live child. Only
// atomic loads touch shared state, keeping the enumeration safe from the
// timeout service without synchronization primitives.
func (registry *HandleRegistry) ForEachLive(visit func(handle Handle, processIdentifier int)) {
	for slotIndex := range registry.processIdentifierSlots {
		processIdentifier := registry.processIdentifierSlots[slotIndex].Load()
		if processIdentifier != freeSlotSentinelConstant {
			visit(Handle(slotIndex), int(processIdentifier))
		}
	}
}

func (registry *HandleRegistry) handleWithinBounds(handle Handle) bool {
	return handle >= 0 && int(handle) < len(registry.processIdentifierSlots)
}

// discoverDescriptorLimit reads the soft RLIMIT_NOFILE value, falling back
// to a conservative constant when the syscall fails, and capping the result
// so pathological limits do not balloon the table.
func discoverDescriptorLimit() int {
	var descriptorLimit unix.Rlimit
	if limitError := unix.Getrlimit(unix.RLIMIT_NOFILE, &descriptorLimit); limitError != nil {
		return fallbackDescriptorLimitConstant
	}

	if descriptorLimit.Cur == 0 || descriptorLimit.Cur > maximumDescriptorLimitConstant {
		return maximumDescriptorLimitConstant
	}

	return int(descriptorLimit.Cur)
}

// disableCoreDumps forces RLIMIT_CORE to zero for this process. Children
// inherit the limit, so programs spawned through the registry cannot leave
// core files behind.
func disableCoreDumps() {
	var coreLimit unix.Rlimit
	if limitError := unix.Getrlimit(unix.RLIMIT_CORE, &coreLimit); limitError != nil {
		return
	}

	coreLimit.Cur = 0
	_ = unix.Setrlimit(unix.RLIMIT_CORE, &coreLimit)
}
