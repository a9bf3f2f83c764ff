package procfs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/edr-agent/domain"
)

func TestParseAddrPort(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantAddr string
		wantPort uint16
		wantOk   bool
	}{
		{"localhost", "0100007F:1F90", "127.0.0.1", 8080, true},
		{"private", "0101A8C0:0050", "192.168.1.1", 80, true},
		{"bad hex", "ZZZZZZZZ:0050", "", 0, false},
		{"short addr", "0100:0050", "", 0, false},
		{"no colon", "0100007F", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, port, ok := parseAddrPort(tt.in)
			require.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				require.Equal(t, tt.wantAddr, addr)
				require.Equal(t, tt.wantPort, port)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	require.Equal(t, "LISTEN", parseState("0A"))
	require.Equal(t, "ESTABLISHED", parseState("01"))
	require.Equal(t, "UNKNOWN", parseState("FF"))
}

func TestReadCmdline(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proc/42/cmdline", []byte("/usr/bin/curl\x00example.com\x00"), 0o644))

	insp := NewInspector(fs)
	argv := insp.ReadCmdline(42)
	require.Equal(t, []string{"/usr/bin/curl", "example.com"}, argv)
}

func TestReadCmdlineMissing(t *testing.T) {
	insp := NewInspector(afero.NewMemMapFs())
	require.Nil(t, insp.ReadCmdline(9999))
}

func TestReadSocketsFirstRowOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "" +
		"  sl  local_address rem_address   st\n" +
		"   0: 0100007F:1F90 01010101:0050 0A\n" +
		"   1: 00000000:0016 00000000:0000 0A\n"
	require.NoError(t, afero.WriteFile(fs, "/proc/7/net/tcp", []byte(content), 0o644))

	insp := NewInspector(fs)
	row, ok := insp.ReadSockets(7, domain.ProtoTCP)
	require.True(t, ok)
	require.Equal(t, "127.0.0.1", row.LocalAddr)
	require.Equal(t, uint16(8080), row.LocalPort)
	require.Equal(t, "1.1.1.1", row.RemoteAddr)
	require.Equal(t, "LISTEN", row.State)

	all := insp.ReadAllSockets(7, domain.ProtoTCP)
	require.Len(t, all, 2)
}

func TestReadSocketsEmptyTable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proc/7/net/udp", []byte("  sl  local_address rem_address   st\n"), 0o644))

	insp := NewInspector(fs)
	_, ok := insp.ReadSockets(7, domain.ProtoUDP)
	require.False(t, ok)
}

func TestReadSocketsSkipsShortRows(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "header\nonly two cols\n   0: 0100007F:1F90 01010101:0050 0A\n"
	require.NoError(t, afero.WriteFile(fs, "/proc/7/net/tcp", []byte(content), 0o644))

	insp := NewInspector(fs)
	row, ok := insp.ReadSockets(7, domain.ProtoTCP)
	require.True(t, ok)
	require.Equal(t, "1.1.1.1", row.RemoteAddr)
}
