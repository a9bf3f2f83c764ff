// Package kernel is the eBPF control plane: loading the embedded kernel
// object, attaching the exec tracepoint and the two cgroup_sock_addr
// filters, and owning the two shared maps (EVENTS, BLOCKLIST) on the
// user-space side. It is built on github.com/cilium/ebpf, the Go-native
// counterpart of the aya stack the original implementation used.
package kernel

import (
	"bytes"
	"fmt"
	"net"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"
	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

const (
	execProgName      = "agent"
	connect4ProgName  = "block_connect4"
	sendmsg4ProgName  = "block_sendmsg4"
	eventsMapName     = "EVENTS"
	blocklistMapName  = "BLOCKLIST"
	perCPUBufferBytes = 4096
)

// Service implements domain.KernelServiceIface against cilium/ebpf.
type Service struct {
	coll *ebpf.Collection

	execLink     link.Link
	connect4Link link.Link
	sendmsg4Link link.Link

	eventsMap    *ebpf.Map
	blocklistMap *ebpf.Map
}

// New returns an unloaded Service.
func New() *Service {
	return &Service{}
}

// Load raises the locked-memory limit (best-effort) and loads the embedded
// kernel object, binding program and map handles. Failure here is
// startup-fatal per spec.md §7.
func (s *Service) Load() error {
	if err := rlimit.RemoveMemlock(); err != nil {
		logrus.Warnf("raising locked-memory limit failed (continuing): %v", err)
	}

	spec, err := ebpf.LoadCollectionSpecFromReader(bytes.NewReader(obj))
	if err != nil {
		return fmt.Errorf("parsing embedded kernel object: %w", err)
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return fmt.Errorf("loading kernel object: %w", err)
	}
	s.coll = coll

	for _, name := range []string{execProgName, connect4ProgName, sendmsg4ProgName} {
		if coll.Programs[name] == nil {
			return fmt.Errorf("kernel object missing required program %q", name)
		}
	}
	for _, name := range []string{eventsMapName, blocklistMapName} {
		if coll.Maps[name] == nil {
			return fmt.Errorf("kernel object missing required map %q", name)
		}
	}

	s.eventsMap = coll.Maps[eventsMapName]
	s.blocklistMap = coll.Maps[blocklistMapName]

	return nil
}

// AttachExecProbe attaches the agent program to sched:sched_process_exec.
func (s *Service) AttachExecProbe() error {
	l, err := link.Tracepoint("sched", "sched_process_exec", s.coll.Programs[execProgName], nil)
	if err != nil {
		return fmt.Errorf("attaching exec tracepoint: %w", err)
	}
	s.execLink = l
	return nil
}

// AttachCgroupFilters attaches both cgroup_sock_addr programs to cgroupDir.
func (s *Service) AttachCgroupFilters(cgroupDir string) error {
	connLink, err := link.AttachCgroup(link.CgroupOptions{
		Path:    cgroupDir,
		Attach:  ebpf.AttachCGroupInet4Connect,
		Program: s.coll.Programs[connect4ProgName],
	})
	if err != nil {
		return fmt.Errorf("attaching connect4 filter to %q: %w", cgroupDir, err)
	}
	s.connect4Link = connLink

	sendLink, err := link.AttachCgroup(link.CgroupOptions{
		Path:    cgroupDir,
		Attach:  ebpf.AttachCGroupUDP4Sendmsg,
		Program: s.coll.Programs[sendmsg4ProgName],
	})
	if err != nil {
		connLink.Close()
		return fmt.Errorf("attaching sendmsg4 filter to %q: %w", cgroupDir, err)
	}
	s.sendmsg4Link = sendLink

	return nil
}

// TakeBlocklist takes ownership of the BLOCKLIST map and pre-populates it
// with seedIPs (every configured blocked IP, packed to its network-byte-
// order u32 key), per spec.md §4.5 step 7. A seed failure is logged and
// skipped rather than aborting the takeover — best-effort, matching the
// fail-open posture of the rest of the kernel boundary.
func (s *Service) TakeBlocklist(seedIPs []net.IP) (domain.BlocklistIface, error) {
	if s.blocklistMap == nil {
		return nil, fmt.Errorf("BLOCKLIST map not loaded")
	}

	bl := newBlocklist(s.blocklistMap)
	for _, ip := range seedIPs {
		if err := bl.Insert(ip); err != nil {
			logrus.Warnf("seeding BLOCKLIST with %s: %v", ip, err)
		}
	}

	return bl, nil
}

// TakeEventReaders takes ownership of the EVENTS perf event array and
// returns one domain.EventReaderIface per online CPU. cilium/ebpf's
// perf.Reader already multiplexes every per-CPU ring behind a single epoll
// loop (unlike aya's per-CPU PerfEventArray readers); TakeEventReaders runs
// that one multiplexed reader in a background dispatcher and fans its
// records out to bounded per-CPU channels, so callers still see one
// independent, lossy reader per CPU exactly as spec.md §4.5 step 9 and the
// "one perf reader fails, others keep going" scenario require.
func (s *Service) TakeEventReaders() ([]domain.EventReaderIface, error) {
	if s.eventsMap == nil {
		return nil, fmt.Errorf("EVENTS map not loaded")
	}
	return newEventReaders(s.eventsMap)
}

// Close detaches every attached program, closes the perf reader (via its
// owning EventReaders, which callers must Close separately), and unloads
// the collection. No flush is required.
func (s *Service) Close() error {
	if s.sendmsg4Link != nil {
		s.sendmsg4Link.Close()
	}
	if s.connect4Link != nil {
		s.connect4Link.Close()
	}
	if s.execLink != nil {
		s.execLink.Close()
	}
	if s.coll != nil {
		s.coll.Close()
	}
	return nil
}

var _ domain.KernelServiceIface = (*Service)(nil)
