package domain

// Proto identifies which /proc/<pid>/net/<proto> table a SocketRow was read
// from.
type Proto string

const (
	ProtoTCP Proto = "tcp"
	ProtoUDP Proto = "udp"
)

// SocketRow is the parsed view of one data line of /proc/<pid>/net/{tcp,udp}.
// Only the first four whitespace-separated columns are consulted; anything
// beyond local/remote endpoint and connection state is ignored.
type SocketRow struct {
	LocalAddr  string
	LocalPort  uint16
	RemoteAddr string
	RemotePort uint16
	State      string
}
