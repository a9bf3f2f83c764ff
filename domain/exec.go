package domain

import "bytes"

// CommLen is the fixed size of the kernel-reported command name, matching
// TASK_COMM_LEN (16 bytes, NUL-terminated if the name is shorter).
const CommLen = 16

// ExecRecord mirrors the fixed-size record the ExecProbe tracepoint program
// submits to EVENTS on every process exec. Field order and widths matter:
// this is reinterpreted directly from the leading bytes of a drained ring
// buffer, the same way the original eBPF payload struct is laid out.
type ExecRecord struct {
	Pid  uint32
	Tgid uint32
	Comm [CommLen]byte
}

// ShortName decodes Comm up to the first NUL byte (or all CommLen bytes if
// none is present), lossily replacing any non-UTF-8 content.
func (e ExecRecord) ShortName() string {
	n := bytes.IndexByte(e.Comm[:], 0)
	if n < 0 {
		n = CommLen
	}
	return string(bytes.ToValidUTF8(e.Comm[:n], []byte("�")))
}
