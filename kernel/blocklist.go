package kernel

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/cilium/ebpf"

	"github.com/hostwatch/edr-agent/domain"
)

// blocklist is the sole owner of the BLOCKLIST map after takeover from the
// loader. Every insert holds mu for its full duration; the kernel side reads
// without participating in this mutex, per spec.md §5.
type blocklist struct {
	mu      sync.Mutex
	m       *ebpf.Map
	entries int
}

func newBlocklist(m *ebpf.Map) *blocklist {
	return &blocklist{m: m}
}

// Insert normalizes ip to its 4-byte, network-byte-order key and installs
// it. Re-inserting an existing key is idempotent.
func (b *blocklist) Insert(ip net.IP) error {
	key, ok := ipv4ToKey(ip)
	if !ok {
		return fmt.Errorf("insert into BLOCKLIST: %s is not IPv4", ip)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var existing uint8
	isNew := b.m.Lookup(key, &existing) != nil

	if err := b.m.Put(key, uint8(1)); err != nil {
		return fmt.Errorf("inserting %s into BLOCKLIST: %w", ip, err)
	}

	if isNew {
		b.entries++
	}
	return nil
}

func (b *blocklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries
}

// ipv4ToKey encodes ip as the big-endian u32 BLOCKLIST uses as a key.
// Reports false for anything that isn't a 4-byte IPv4 address.
func ipv4ToKey(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

var _ domain.BlocklistIface = (*blocklist)(nil)
