package procfs

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/hostwatch/edr-agent/domain"
)

// tcpStates maps the two-hex-digit connection-state code used in
// /proc/<pid>/net/{tcp,udp} to its symbolic name. Codes outside this table
// (including udp's unused states) fall back to "UNKNOWN".
var tcpStates = map[string]string{
	"01": "ESTABLISHED",
	"02": "SYN_SENT",
	"03": "SYN_RECV",
	"04": "FIN_WAIT1",
	"05": "FIN_WAIT2",
	"06": "TIME_WAIT",
	"07": "CLOSE",
	"08": "CLOSE_WAIT",
	"09": "LAST_ACK",
	"0A": "LISTEN",
	"0B": "CLOSING",
}

func parseState(hex string) string {
	if s, ok := tcpStates[strings.ToUpper(hex)]; ok {
		return s
	}
	return "UNKNOWN"
}

// parseAddrPort parses the "AABBCCDD:PPPP" form used for both the local and
// remote endpoint columns: 8 hex digits of address (the numeric value's
// bytes, low byte first, give the dotted quad) followed by a colon and 4 hex
// digits of port.
func parseAddrPort(s string) (addr string, port uint16, ok bool) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return "", 0, false
	}
	ipHex, portHex := s[:idx], s[idx+1:]
	if len(ipHex) != 8 {
		return "", 0, false
	}

	ip, err := strconv.ParseUint(ipHex, 16, 32)
	if err != nil {
		return "", 0, false
	}
	b0, b1, b2, b3 := byte(ip), byte(ip>>8), byte(ip>>16), byte(ip>>24)

	p, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return "", 0, false
	}

	return fmt.Sprintf("%d.%d.%d.%d", b0, b1, b2, b3), uint16(p), true
}

// readSocketRows reads every data row (header skipped) of
// /proc/<pid>/net/<proto>, parsing columns 1-3 (local endpoint, remote
// endpoint, state). Rows with fewer than 4 whitespace-separated columns, or
// an unparseable endpoint, are skipped.
func readSocketRows(fs afero.Fs, pid uint32, proto domain.Proto) []domain.SocketRow {
	path := fmt.Sprintf("/proc/%d/net/%s", pid, proto)

	f, err := fs.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var rows []domain.SocketRow
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}

		cols := strings.Fields(scanner.Text())
		if len(cols) < 4 {
			continue
		}

		localAddr, localPort, ok := parseAddrPort(cols[1])
		if !ok {
			continue
		}
		remoteAddr, remotePort, ok := parseAddrPort(cols[2])
		if !ok {
			continue
		}

		rows = append(rows, domain.SocketRow{
			LocalAddr:  localAddr,
			LocalPort:  localPort,
			RemoteAddr: remoteAddr,
			RemotePort: remotePort,
			State:      parseState(cols[3]),
		})
	}

	return rows
}
