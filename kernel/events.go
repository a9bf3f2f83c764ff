package kernel

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/perf"
	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

// perCPUBufferDepth mirrors spec.md §4.5 step 9's "fixed pool of 64 reusable
// read buffers per CPU": each per-CPU channel below holds at most this many
// undelivered records before new ones are dropped — lossy-under-load by
// design, per spec.md §5's backpressure policy.
const perCPUBufferDepth = 64

// eventReader is one online CPU's view of the EVENTS stream. Production
// wires every eventReader for a collection against the same underlying
// dispatcher goroutine (see newEventReaders); each only ever sees records
// the dispatcher attributed to its CPU.
type eventReader struct {
	cpu  int
	recs chan domain.ExecRecord
	errs chan error

	closeOnce sync.Once
	stop      chan struct{}
}

func (r *eventReader) CPU() int { return r.cpu }

// ReadInto performs one non-blocking sweep: it drains every record and, if
// present, the one pending error currently buffered for this CPU, invoking
// fn for each record. It never blocks waiting for new data.
func (r *eventReader) ReadInto(fn func(domain.ExecRecord)) error {
	for {
		select {
		case rec := <-r.recs:
			fn(rec)
			continue
		default:
		}

		select {
		case err := <-r.errs:
			return err
		default:
			return nil
		}
	}
}

func (r *eventReader) Close() error {
	r.closeOnce.Do(func() { close(r.stop) })
	return nil
}

// newEventReaders opens the one multiplexed perf.Reader cilium/ebpf exposes
// for a perf event array, and fans its output out to one eventReader per
// online CPU via a background dispatcher goroutine.
func newEventReaders(m *ebpf.Map) ([]domain.EventReaderIface, error) {
	reader, err := perf.NewReader(m, perCPUBufferBytes)
	if err != nil {
		return nil, fmt.Errorf("opening EVENTS perf reader: %w", err)
	}

	cpus, err := onlineCPUs()
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("enumerating online CPUs: %w", err)
	}

	readers := make([]domain.EventReaderIface, 0, len(cpus))
	byCPU := make(map[int]*eventReader, len(cpus))
	for _, cpu := range cpus {
		er := &eventReader{
			cpu:  cpu,
			recs: make(chan domain.ExecRecord, perCPUBufferDepth),
			errs: make(chan error, 1),
			stop: make(chan struct{}),
		}
		byCPU[cpu] = er
		readers = append(readers, er)
	}

	go dispatch(reader, byCPU)

	// The perf reader is closed once every per-CPU reader has been closed,
	// which ends dispatch via perf.ErrClosed.
	go func() {
		for _, er := range byCPU {
			<-er.stop
		}
		reader.Close()
	}()

	return readers, nil
}

// dispatch runs for the lifetime of reader, decoding each perf sample and
// routing it to the eventReader for the CPU that produced it. A read error
// is broadcast to every still-open reader so AgentRuntime's drain loop logs
// it once per CPU and continues, per spec.md §8 scenario 5.
func dispatch(reader *perf.Reader, byCPU map[int]*eventReader) {
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, perf.ErrClosed) {
				return
			}
			for _, er := range byCPU {
				select {
				case er.errs <- err:
				default:
				}
			}
			continue
		}

		if record.LostSamples > 0 {
			logrus.Warnf("perf reader on CPU %d dropped %d samples", record.CPU, record.LostSamples)
			continue
		}

		rec, ok := decodeExecRecord(record.RawSample)
		if !ok {
			continue
		}

		er, found := byCPU[record.CPU]
		if !found {
			continue
		}

		select {
		case er.recs <- rec:
		default:
			// Per-CPU pool exhausted; drop, matching the kernel side's own
			// best-effort ring semantics.
		}
	}
}

// onlineCPUs parses /sys/devices/system/cpu/online (e.g. "0-3,5"), the
// standard way to enumerate the CPUs currently online on Linux.
func onlineCPUs() ([]int, error) {
	raw, err := os.ReadFile("/sys/devices/system/cpu/online")
	if err != nil {
		return nil, err
	}
	return parseCPURange(string(raw))
}

// parseCPURange parses the "0-3,5" range-list format used by
// /sys/devices/system/cpu/online.
func parseCPURange(s string) ([]int, error) {
	var cpus []int
	for _, group := range strings.Split(strings.TrimSpace(s), ",") {
		if group == "" {
			continue
		}
		bounds := strings.SplitN(group, "-", 2)
		lo, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("parsing cpu range %q: %w", group, err)
		}
		hi := lo
		if len(bounds) == 2 {
			hi, err = strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("parsing cpu range %q: %w", group, err)
			}
		}
		for c := lo; c <= hi; c++ {
			cpus = append(cpus, c)
		}
	}

	if len(cpus) == 0 {
		return nil, fmt.Errorf("no online CPUs found")
	}
	return cpus, nil
}

var _ domain.EventReaderIface = (*eventReader)(nil)
