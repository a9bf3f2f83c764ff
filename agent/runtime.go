// Package agent wires KernelService, PolicyEngine, and the drained
// EventReaders into the agent's 12-step lifecycle.
package agent

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

// sweepInterval is the pause after every drain pass, whether or not any
// reader returned records, matching the lossy-ring-buffer drain cadence.
const sweepInterval = 5 * time.Millisecond

// Runtime owns the kernel service, the policy engine, and the per-CPU
// readers for the lifetime of one agent process.
//
// Attach happens in two steps because PolicyEngine itself needs a live
// BlocklistIface handle before it can be constructed: Start loads and
// attaches the kernel programs and hands the caller the BLOCKLIST handle,
// the caller builds the engine around it, then AttachEngine takes the
// EVENTS readers and flips the runtime into its running state.
type Runtime struct {
	kernel  domain.KernelServiceIface
	engine  domain.PolicyEngineIface
	readers []domain.EventReaderIface

	running atomic.Bool
}

// New builds a Runtime bound to kernel. Start and AttachEngine must run,
// in that order, before Run.
func New(kernel domain.KernelServiceIface) *Runtime {
	return &Runtime{kernel: kernel}
}

// Start loads the embedded object and attaches the exec tracepoint and the
// two cgroup programs under cgroupDir, then takes the BLOCKLIST handle,
// seeding it with seedIPs (the configured blocked-IP deny-list, per spec.md
// §4.5 step 7), and returns it so the caller can finish constructing the
// PolicyEngine around it.
func (r *Runtime) Start(cgroupDir string, seedIPs []net.IP) (domain.BlocklistIface, error) {
	if err := r.kernel.Load(); err != nil {
		return nil, fmt.Errorf("loading kernel object: %w", err)
	}

	if err := r.kernel.AttachExecProbe(); err != nil {
		return nil, fmt.Errorf("attaching exec probe: %w", err)
	}

	if err := r.kernel.AttachCgroupFilters(cgroupDir); err != nil {
		return nil, fmt.Errorf("attaching cgroup filters under %s: %w", cgroupDir, err)
	}

	blocklist, err := r.kernel.TakeBlocklist(seedIPs)
	if err != nil {
		return nil, fmt.Errorf("taking BLOCKLIST handle: %w", err)
	}

	logrus.Infof("BLOCKLIST seeded with %d configured IPs", len(seedIPs))
	return blocklist, nil
}

// AttachEngine takes ownership of the per-CPU EVENTS readers, records engine
// as the drain loop's dispatch target, notifies systemd readiness, and puts
// the runtime into its running state. Call after Start.
func (r *Runtime) AttachEngine(engine domain.PolicyEngineIface) error {
	readers, err := r.kernel.TakeEventReaders()
	if err != nil {
		return fmt.Errorf("taking EVENTS readers: %w", err)
	}

	r.engine = engine
	r.readers = readers

	notifyReady()

	r.running.Store(true)
	logrus.Infof("agent started: %d per-CPU readers attached", len(readers))
	return nil
}

// Run drives the drain loop until Stop is called. Each sweep reads every
// pending ExecRecord off every reader, dispatching each to HandleCmd and
// HandleNet in turn, then sleeps sweepInterval before the next pass. A
// reader that returns an error only logs it — draining continues for every
// other CPU. The loop always completes one full sweep before checking
// whether Stop was called, per spec.md §8 invariant 5 ("shutdown finishes
// the in-flight sweep before exiting").
func (r *Runtime) Run() {
	for {
		for _, reader := range r.readers {
			err := reader.ReadInto(func(rec domain.ExecRecord) {
				r.engine.HandleCmd(rec)
				r.engine.HandleNet(rec)
			})
			if err != nil {
				logrus.Warnf("reader on CPU %d: %v", reader.CPU(), err)
			}
		}

		if !r.running.Load() {
			return
		}

		time.Sleep(sweepInterval)
	}
}

// Stop signals Run's loop to exit after its current sweep completes.
func (r *Runtime) Stop() {
	r.running.Store(false)
}

// Shutdown notifies systemd that the agent is stopping, closes every reader,
// and releases the kernel service (detaching its links and closing the
// collection).
func (r *Runtime) Shutdown() error {
	notifyStopping()

	for _, reader := range r.readers {
		if err := reader.Close(); err != nil {
			logrus.Warnf("closing reader on CPU %d: %v", reader.CPU(), err)
		}
	}

	if err := r.kernel.Close(); err != nil {
		return fmt.Errorf("closing kernel service: %w", err)
	}
	return nil
}
