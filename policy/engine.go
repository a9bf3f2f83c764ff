// Package policy implements the decision layer invoked once per drained
// exec record: CmdHandler kills and alerts on a deny-listed program,
// NetHandler inserts deny-listed remote destinations into the kernel
// BLOCKLIST.
package policy

import (
	"os"

	"github.com/hostwatch/edr-agent/domain"
)

// Engine wires the set-once deny-sets, the process inspector, the kernel
// BLOCKLIST handle, the alert client, and the killer into the two handlers
// AgentRuntime invokes per exec record.
type Engine struct {
	proc      domain.ProcInspectorIface
	cmds      domain.StringSetIface
	ips       domain.StringSetIface
	blocklist domain.BlocklistIface
	alerts    domain.AlertClientIface
	killer    domain.KillerIface
	hostname  string
}

// New builds an Engine. hostname is resolved once via os.Hostname and
// reused for every alert, rather than re-resolved per block.
func New(
	proc domain.ProcInspectorIface,
	cmds domain.StringSetIface,
	ips domain.StringSetIface,
	blocklist domain.BlocklistIface,
	alerts domain.AlertClientIface,
	killer domain.KillerIface,
) *Engine {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Engine{
		proc:      proc,
		cmds:      cmds,
		ips:       ips,
		blocklist: blocklist,
		alerts:    alerts,
		killer:    killer,
		hostname:  hostname,
	}
}

var _ domain.PolicyEngineIface = (*Engine)(nil)
