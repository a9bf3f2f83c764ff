package kernel

import (
	"encoding/binary"

	"github.com/hostwatch/edr-agent/domain"
)

// execRecordSize is the wire size of domain.ExecRecord: two u32s followed by
// the 16-byte comm buffer.
const execRecordSize = 4 + 4 + domain.CommLen

// decodeExecRecord reinterprets the leading execRecordSize bytes of a
// drained ring-buffer sample as a domain.ExecRecord. Shorter samples are
// rejected rather than zero-padded, matching spec.md §4.5 step 11 ("length
// >= record size").
func decodeExecRecord(raw []byte) (domain.ExecRecord, bool) {
	if len(raw) < execRecordSize {
		return domain.ExecRecord{}, false
	}

	var rec domain.ExecRecord
	rec.Pid = binary.LittleEndian.Uint32(raw[0:4])
	rec.Tgid = binary.LittleEndian.Uint32(raw[4:8])
	copy(rec.Comm[:], raw[8:8+domain.CommLen])

	return rec, true
}
