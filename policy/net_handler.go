package policy

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

// HandleNet inspects the first TCP and first UDP socket row open for the
// exec'd process — ReadSockets, not ReadAllSockets: PolicyEngine is
// committed to the single first-row view (SPEC_FULL.md §6.3/§9.1;
// ReadAllSockets is reserved for the diag CLI). The TCP row is subject to
// the deny-by-remote-ip policy; the UDP row is observed and logged only.
// HandleNet's UDP branch is read-only telemetry: the kernel's cgroup
// sendmsg4 hook is what blocks a UDP send to an address already in
// BLOCKLIST.
func (e *Engine) HandleNet(rec domain.ExecRecord) {
	if row, ok := e.proc.ReadSockets(rec.Pid, domain.ProtoTCP); ok {
		logrus.Debugf("tcp socket observed: pid=%d local=%s:%d remote=%s:%d state=%s",
			rec.Pid, row.LocalAddr, row.LocalPort, row.RemoteAddr, row.RemotePort, row.State)
		e.maybeBlock(row)
	}

	if row, ok := e.proc.ReadSockets(rec.Pid, domain.ProtoUDP); ok {
		logrus.Debugf("udp socket observed: pid=%d local=%s:%d remote=%s:%d",
			rec.Pid, row.LocalAddr, row.LocalPort, row.RemoteAddr, row.RemotePort)
	}
}

// maybeBlock inserts row's remote address into the kernel BLOCKLIST when it
// matches BlockedIpSet. Non-IPv4 remotes are allowed through: the kernel
// hooks only filter AF_INET traffic (spec.md §4.2's connect4/sendmsg4
// programs), so there is nothing for an IPv6 BLOCKLIST entry to match.
func (e *Engine) maybeBlock(row domain.SocketRow) {
	if !e.ips.Contains(row.RemoteAddr) {
		return
	}

	ip := net.ParseIP(row.RemoteAddr)
	if ip == nil || ip.To4() == nil {
		logrus.Debugf("allow (non-IPv4): %s", row.RemoteAddr)
		return
	}

	if err := e.blocklist.Insert(ip); err != nil {
		logrus.Warnf("inserting %s into BLOCKLIST: %v", row.RemoteAddr, err)
		return
	}

	logrus.Infof("blocking: %s", row.RemoteAddr)
}
