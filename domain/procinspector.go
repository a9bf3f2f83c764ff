package domain

// ProcInspectorIface derives process detail from /proc for a given pid. All
// methods degrade to an empty/zero result (never an error a caller must
// branch on) when the pid has already exited — /proc reads racing process
// exit are expected, not exceptional.
type ProcInspectorIface interface {
	// ReadCmdline returns the argv vector of pid, or nil if unavailable.
	ReadCmdline(pid uint32) []string
	// ReadSockets returns the first SocketRow of pid's /proc/<pid>/net/<proto>
	// table, or false if the table has no data rows.
	ReadSockets(pid uint32, proto Proto) (SocketRow, bool)
	// ReadAllSockets returns every data row of pid's /proc/<pid>/net/<proto>
	// table. Supplements ReadSockets for callers that need the full view
	// (e.g. the diag CLI); PolicyEngine must keep using ReadSockets.
	ReadAllSockets(pid uint32, proto Proto) []SocketRow
}
