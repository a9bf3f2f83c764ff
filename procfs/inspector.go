// Package procfs derives process detail from /proc. It is read through an
// afero.Fs rather than the os package directly, the way the teacher's sysio
// package let handler code swap a mem-mapped filesystem in for tests — here
// production wires afero.NewOsFs() and tests wire afero.NewMemMapFs().
package procfs

import (
	"github.com/spf13/afero"

	"github.com/hostwatch/edr-agent/domain"
)

// Inspector implements domain.ProcInspectorIface against an afero.Fs.
type Inspector struct {
	fs afero.Fs
}

// NewInspector builds an Inspector backed by fs. Pass afero.NewOsFs() in
// production.
func NewInspector(fs afero.Fs) *Inspector {
	return &Inspector{fs: fs}
}

func (i *Inspector) ReadCmdline(pid uint32) []string {
	return readCmdline(i.fs, pid)
}

func (i *Inspector) ReadSockets(pid uint32, proto domain.Proto) (domain.SocketRow, bool) {
	rows := readSocketRows(i.fs, pid, proto)
	if len(rows) == 0 {
		return domain.SocketRow{}, false
	}
	return rows[0], true
}

func (i *Inspector) ReadAllSockets(pid uint32, proto domain.Proto) []domain.SocketRow {
	return readSocketRows(i.fs, pid, proto)
}

var _ domain.ProcInspectorIface = (*Inspector)(nil)
