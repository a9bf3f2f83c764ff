package domain

import "net"

// BlocklistIface is the sole user-space writer of the kernel-visible
// BLOCKLIST map. The kernel side (Connect4Filter/Sendmsg4Filter) only ever
// reads it; every mutation from this side must go through a single owner so
// concurrent exec events never race on the underlying map handle.
type BlocklistIface interface {
	// Insert adds ip (must be a 4-byte IPv4 address) to the deny set, keyed
	// by its network-byte-order encoding. Idempotent.
	Insert(ip net.IP) error
	// Len reports the number of keys currently installed, for diagnostics.
	Len() int
}

// EventReaderIface drains one per-CPU perf event ring. AgentRuntime opens
// one per online CPU and owns all of them exclusively — no cross-CPU
// sharing.
type EventReaderIface interface {
	// CPU returns the CPU id this reader is bound to.
	CPU() int
	// ReadInto performs one non-blocking sweep, invoking fn for every
	// complete ExecRecord found. Short or empty reads are not an error.
	ReadInto(fn func(ExecRecord)) error
	Close() error
}

// KernelServiceIface is the eBPF control-plane boundary: loading the
// embedded object, attaching the tracepoint and cgroup programs, and taking
// ownership of the two shared maps.
type KernelServiceIface interface {
	Load() error
	AttachExecProbe() error
	AttachCgroupFilters(cgroupDir string) error
	// TakeBlocklist takes ownership of BLOCKLIST and pre-populates it with
	// seedIPs, the configured blocked-IP deny-list.
	TakeBlocklist(seedIPs []net.IP) (BlocklistIface, error)
	TakeEventReaders() ([]EventReaderIface, error)
	Close() error
}
