package policy

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hostwatch/edr-agent/domain"
)

type fakeProc struct {
	cmdlines map[uint32][]string
	tcp      map[uint32][]domain.SocketRow
	udp      map[uint32][]domain.SocketRow
}

func (f *fakeProc) ReadCmdline(pid uint32) []string { return f.cmdlines[pid] }

func (f *fakeProc) ReadSockets(pid uint32, proto domain.Proto) (domain.SocketRow, bool) {
	rows := f.ReadAllSockets(pid, proto)
	if len(rows) == 0 {
		return domain.SocketRow{}, false
	}
	return rows[0], true
}

func (f *fakeProc) ReadAllSockets(pid uint32, proto domain.Proto) []domain.SocketRow {
	if proto == domain.ProtoUDP {
		return f.udp[pid]
	}
	return f.tcp[pid]
}

type fakeSet struct{ members map[string]bool }

func newFakeSet(members ...string) *fakeSet {
	m := make(map[string]bool, len(members))
	for _, s := range members {
		m[s] = true
	}
	return &fakeSet{members: m}
}

func (f *fakeSet) Contains(s string) bool { return f.members[s] }
func (f *fakeSet) Len() int               { return len(f.members) }

type fakeBlocklist struct {
	inserted []net.IP
	err      error
}

func (f *fakeBlocklist) Insert(ip net.IP) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, ip)
	return nil
}
func (f *fakeBlocklist) Len() int { return len(f.inserted) }

type fakeAlertClient struct {
	sent []domain.Alert
	ch   chan domain.Alert
}

func newFakeAlertClient() *fakeAlertClient {
	return &fakeAlertClient{ch: make(chan domain.Alert, 8)}
}

func (f *fakeAlertClient) Send(a domain.Alert) error {
	f.ch <- a
	return nil
}

type fakeKiller struct {
	killed []uint32
}

func (f *fakeKiller) KillTgid(tgid uint32) error {
	f.killed = append(f.killed, tgid)
	return nil
}

func commOf(name string) [domain.CommLen]byte {
	var c [domain.CommLen]byte
	copy(c[:], name)
	return c
}

func TestHandleCmdAllowsUnlistedProgram(t *testing.T) {
	proc := &fakeProc{cmdlines: map[uint32][]string{42: {"/usr/bin/ls", "-la"}}}
	cmds := newFakeSet("nc", "curl")
	killer := &fakeKiller{}
	alerts := newFakeAlertClient()

	e := New(proc, cmds, newFakeSet(), &fakeBlocklist{}, alerts, killer)

	e.HandleCmd(domain.ExecRecord{Pid: 42, Tgid: 42, Comm: commOf("ls")})

	require.Empty(t, killer.killed)
	require.Empty(t, alerts.ch)
}

func TestHandleCmdKillsAndAlertsOnDeniedProgram(t *testing.T) {
	proc := &fakeProc{cmdlines: map[uint32][]string{7: {"/usr/bin/nc", "-l", "4444"}}}
	cmds := newFakeSet("nc", "curl")
	killer := &fakeKiller{}
	alerts := newFakeAlertClient()

	e := New(proc, cmds, newFakeSet(), &fakeBlocklist{}, alerts, killer)

	e.HandleCmd(domain.ExecRecord{Pid: 7, Tgid: 7, Comm: commOf("nc")})

	require.Equal(t, []uint32{7}, killer.killed)

	a := <-alerts.ch
	require.Equal(t, "EDR CMD BLOQUÉ: nc (pid=7)", a.Cause)
	require.NotEmpty(t, a.ID)
	require.False(t, a.TriggeredAt.IsZero())
}

func TestHandleCmdMatchesOnShortNameWhenArgvMissing(t *testing.T) {
	proc := &fakeProc{}
	cmds := newFakeSet("nc")
	killer := &fakeKiller{}
	alerts := newFakeAlertClient()

	e := New(proc, cmds, newFakeSet(), &fakeBlocklist{}, alerts, killer)

	e.HandleCmd(domain.ExecRecord{Pid: 9, Tgid: 9, Comm: commOf("nc")})

	require.Equal(t, []uint32{9}, killer.killed)
	<-alerts.ch
}

func TestHandleNetBlocksDeniedRemoteIP(t *testing.T) {
	proc := &fakeProc{
		tcp: map[uint32][]domain.SocketRow{
			11: {{LocalAddr: "10.0.0.5", LocalPort: 5000, RemoteAddr: "192.168.1.1", RemotePort: 80, State: "ESTABLISHED"}},
		},
	}
	ips := newFakeSet("192.168.1.1")
	bl := &fakeBlocklist{}

	e := New(proc, newFakeSet(), ips, bl, newFakeAlertClient(), &fakeKiller{})

	e.HandleNet(domain.ExecRecord{Pid: 11, Tgid: 11})

	require.Len(t, bl.inserted, 1)
	require.True(t, bl.inserted[0].Equal(net.ParseIP("192.168.1.1")))
}

func TestHandleNetAllowsUnlistedRemoteIP(t *testing.T) {
	proc := &fakeProc{
		tcp: map[uint32][]domain.SocketRow{
			12: {{LocalAddr: "10.0.0.5", LocalPort: 5000, RemoteAddr: "8.8.8.8", RemotePort: 443, State: "ESTABLISHED"}},
		},
	}
	bl := &fakeBlocklist{}

	e := New(proc, newFakeSet(), newFakeSet(), bl, newFakeAlertClient(), &fakeKiller{})

	e.HandleNet(domain.ExecRecord{Pid: 12, Tgid: 12})

	require.Empty(t, bl.inserted)
}

func TestHandleNetIgnoresUDPForBlocking(t *testing.T) {
	proc := &fakeProc{
		udp: map[uint32][]domain.SocketRow{
			13: {{LocalAddr: "10.0.0.5", LocalPort: 5000, RemoteAddr: "192.168.1.1", RemotePort: 53}},
		},
	}
	ips := newFakeSet("192.168.1.1")
	bl := &fakeBlocklist{}

	e := New(proc, newFakeSet(), ips, bl, newFakeAlertClient(), &fakeKiller{})

	e.HandleNet(domain.ExecRecord{Pid: 13, Tgid: 13})

	require.Empty(t, bl.inserted)
}
