package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hostwatch/edr-agent/domain"
)

// HandleCmd derives the program's short name and argv[0] basename, checks
// both against BlockedCmdSet, and on a hit dispatches an alert and kills the
// tgid — in that order, per spec.md §4.4 step 4's "alert scheduled before
// the kill is issued; delivery success is not awaited" contract.
func (e *Engine) HandleCmd(rec domain.ExecRecord) {
	shortName := rec.ShortName()
	argv := e.proc.ReadCmdline(rec.Pid)

	arg0Basename := "<unknown>"
	if len(argv) > 0 {
		arg0Basename = basename(argv[0])
	}

	banned := e.cmds.Contains(shortName) || e.cmds.Contains(arg0Basename)
	if !banned {
		logrus.Debugf("exec observed: pid=%d tgid=%d comm=%s argv=%v", rec.Pid, rec.Tgid, shortName, argv)
		return
	}

	cause := fmt.Sprintf("EDR CMD BLOQUÉ: %s (pid=%d)", arg0Basename, rec.Tgid)
	logrus.Warnf("blocked command exec: %s", cause)

	go e.dispatchAlert(cause)

	if err := e.killer.KillTgid(rec.Tgid); err != nil {
		logrus.Warnf("killing tgid %d: %v", rec.Tgid, err)
	}
}

func (e *Engine) dispatchAlert(cause string) {
	a := domain.Alert{
		ID:          uuid.New().String(),
		AlertLabel:  "Suspicious command execution blocked",
		Machine:     e.hostname,
		Cause:       cause,
		TriggeredAt: time.Now().UTC(),
	}

	if err := e.alerts.Send(a); err != nil {
		logrus.Warnf("send_alert_to_central failed: %v", err)
	}
}

// basename returns the substring after the last '/', or the whole string if
// there is none.
func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
